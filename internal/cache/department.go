package cache

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ashita-ai/blueline/internal/coerce"
	"github.com/ashita-ai/blueline/internal/model"
)

// DefaultPosition is used for districts missing from the position table
// (Boston City Hall).
var DefaultPosition = [2]float64{42.3601, -71.0589}

// DefaultAddress is used for departments missing from the address table.
const DefaultAddress = "Address unavailable."

// UnknownSlug identifies a department whose district name is empty.
const UnknownSlug = "unknown"

var districtCode = regexp.MustCompile(`\b([a-z])[-\s]?(\d{1,2})\b`)

// positions is keyed by normalized district name.
var positions = map[string][2]float64{
	"boston police district a-1":  {42.3613, -71.0598},
	"boston police district a-7":  {42.3706, -71.0382},
	"boston police district b-2":  {42.3296, -71.0846},
	"boston police district b-3":  {42.2844, -71.0916},
	"boston police district c-6":  {42.3412, -71.0551},
	"boston police district c-11": {42.2946, -71.0596},
	"boston police district d-4":  {42.3337, -71.0984},
	"boston police district d-14": {42.3495, -71.1505},
	"boston police district e-5":  {42.2866, -71.1487},
	"boston police district e-13": {42.3097, -71.1046},
	"boston police district e-18": {42.2576, -71.1254},
	"a-1":                         {42.3613, -71.0598},
	"a-7":                         {42.3706, -71.0382},
	"b-2":                         {42.3296, -71.0846},
	"b-3":                         {42.2844, -71.0916},
	"c-6":                         {42.3412, -71.0551},
	"c-11":                        {42.2946, -71.0596},
	"d-4":                         {42.3337, -71.0984},
	"d-14":                        {42.3495, -71.1505},
	"e-5":                         {42.2866, -71.1487},
	"e-13":                        {42.3097, -71.1046},
	"e-18":                        {42.2576, -71.1254},
}

// addresses is keyed by department id.
var addresses = map[string]string{
	"a-1":  "40 New Sudbury St, Boston, MA 02114",
	"a-7":  "69 Paris St, East Boston, MA 02128",
	"b-2":  "135 Dudley St, Roxbury, MA 02119",
	"b-3":  "1165 Blue Hill Ave, Mattapan, MA 02124",
	"c-6":  "101 W Broadway, South Boston, MA 02127",
	"c-11": "40 Gibson St, Dorchester, MA 02122",
	"d-4":  "1499 Tremont St, Boston, MA 02120",
	"d-14": "301 Washington St, Brighton, MA 02135",
	"e-5":  "1708 Centre St, West Roxbury, MA 02132",
	"e-13": "3347 Washington St, Jamaica Plain, MA 02130",
	"e-18": "1165 Hyde Park Ave, Hyde Park, MA 02136",
}

// foldDiacritics maps "Dorchéster" to "Dorchester".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeDistrictName lowercases, folds diacritics and collapses whitespace.
func NormalizeDistrictName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(foldDiacritics(name))), " ")
}

// Slug derives a department id from a district name. Names carrying a
// letter-number district code ("Boston Police District A-1") become the code
// ("a-1"); anything else is slugified; an empty name is "unknown".
func Slug(name string) string {
	normalized := NormalizeDistrictName(name)
	if m := districtCode.FindStringSubmatch(normalized); m != nil {
		return m[1] + "-" + m[2]
	}

	var b strings.Builder
	dash := false
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return UnknownSlug
	}
	return b.String()
}

// PositionFor returns the map coordinate of a district.
func PositionFor(name string) [2]float64 {
	if p, ok := positions[NormalizeDistrictName(name)]; ok {
		return p
	}
	return DefaultPosition
}

// AddressFor returns the station address of a department id.
func AddressFor(id string) string {
	if a, ok := addresses[id]; ok {
		return a
	}
	return DefaultAddress
}

// DisplayName renders "First Last", falling back to "Officer {id}".
func DisplayName(o *model.Officer, employeeID *int64) string {
	if o != nil {
		if name := strings.TrimSpace(strings.TrimSpace(o.FirstName) + " " + strings.TrimSpace(o.LastName)); name != "" {
			return name
		}
	}
	return "Officer " + model.FormatEmployeeID(employeeID)
}

// BuildDepartment turns one district's joined members into the public
// department payload. It never fails; missing pieces fall back to defaults.
func BuildDepartment(district string, members []model.DistrictMember, metrics map[int64]model.OfficerMetrics, mappingScore float64) model.Department {
	id := Slug(district)
	officers := make([]model.DepartmentOfficer, 0, len(members))
	for _, m := range members {
		empID := m.Assignment.EmployeeID
		if empID == nil && m.Officer != nil {
			empID = m.Officer.EmployeeID
		}
		entry := model.DepartmentOfficer{
			ID:   model.FormatEmployeeID(empID),
			Name: DisplayName(m.Officer, empID),
		}
		if m.Officer != nil {
			entry.Rank = m.Officer.Rank
		}
		if empID != nil {
			if met, ok := metrics[*empID]; ok {
				entry.ComplaintsPercentile = met.ComplaintsPercentile
				entry.OvertimePercentile = met.OvertimeRatioPercentile
			}
		}
		officers = append(officers, entry)
	}

	return model.Department{
		ID:           id,
		District:     district,
		Address:      AddressFor(id),
		Position:     PositionFor(district),
		Officers:     officers,
		MappingScore: coerce.Round(mappingScore, 2),
	}
}
