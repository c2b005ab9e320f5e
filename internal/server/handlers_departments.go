package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/ashita-ai/blueline/internal/cache"
	"github.com/ashita-ai/blueline/internal/model"
)

// HandleListDepartments handles GET /api/departments.
//
// Query parameters: district_id (department id or district name), q
// (case-insensitive match on district, address or officer name), limit, and
// delay_ms, an artificial latency for exercising client loading states. The
// delay is capped by the configured maximum and ends early when the client
// goes away.
func (h *Handlers) HandleListDepartments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	delayMs, err := queryInt(r, "delay_ms", 0)
	if err != nil || delayMs < 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "delay_ms must be a non-negative integer")
		return
	}
	delay := min(time.Duration(delayMs)*time.Millisecond, h.maxDelay)
	if err := sleepCtx(r.Context(), delay); err != nil {
		return
	}

	if !h.data.EnsureReady(r.Context()) {
		writeUnavailable(w, r)
		return
	}

	districtID := strings.TrimSpace(r.URL.Query().Get("district_id"))
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	out := []model.Department{}
	for _, d := range h.data.Departments(r.Context()) {
		if districtID != "" && !matchesDistrict(d, districtID) {
			continue
		}
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// HandleGetDepartment handles GET /api/departments/{id}.
func (h *Handlers) HandleGetDepartment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "department id is required")
		return
	}
	if !h.data.EnsureReady(r.Context()) {
		writeUnavailable(w, r)
		return
	}
	d, ok := h.data.Department(r.Context(), cache.Slug(id))
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "department not found")
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func matchesDistrict(d model.Department, districtID string) bool {
	return strings.EqualFold(d.ID, districtID) || d.ID == cache.Slug(districtID)
}

func matchesSearch(d model.Department, search string) bool {
	if strings.Contains(strings.ToLower(d.District), search) ||
		strings.Contains(strings.ToLower(d.Address), search) ||
		strings.Contains(d.ID, search) {
		return true
	}
	for _, o := range d.Officers {
		if strings.Contains(strings.ToLower(o.Name), search) {
			return true
		}
	}
	return false
}
