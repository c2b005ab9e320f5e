package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ashita-ai/blueline/internal/model"
)

// HandleListOfficers handles GET /api/officers. first_name and last_name are
// case-insensitive substring filters; rank filters exactly, ignoring case.
func (h *Handlers) HandleListOfficers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultOfficerLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	offset, err := queryOffset(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if !h.data.EnsureReady(r.Context()) {
		writeUnavailable(w, r)
		return
	}

	q := r.URL.Query()
	first := strings.ToLower(strings.TrimSpace(q.Get("first_name")))
	last := strings.ToLower(strings.TrimSpace(q.Get("last_name")))
	rank := strings.TrimSpace(q.Get("rank"))

	matched := []model.Officer{}
	for _, o := range h.data.Officers(r.Context()) {
		if first != "" && !strings.Contains(strings.ToLower(o.FirstName), first) {
			continue
		}
		if last != "" && !strings.Contains(strings.ToLower(o.LastName), last) {
			continue
		}
		if rank != "" && !strings.EqualFold(o.Rank, rank) {
			continue
		}
		matched = append(matched, o)
	}

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)
	writeList(w, r, matched[start:end], total, limit, offset)
}

// HandleGetOfficer handles GET /api/officers/{employee_id} and returns the
// full officer profile.
func (h *Handlers) HandleGetOfficer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("employee_id")), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "employee_id must be an integer")
		return
	}
	if !h.data.EnsureReady(r.Context()) {
		writeUnavailable(w, r)
		return
	}
	profile, ok := h.data.Profile(r.Context(), id)
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "officer not found")
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}
