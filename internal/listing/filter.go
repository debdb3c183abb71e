package listing

import (
	"slices"
	"sort"
	"strings"
)

// Criteria selects the entries worth reporting. All conditions must hold.
type Criteria struct {
	SourceCountry    string
	MissionCountries []string
	Keywords         []string
}

// Match reports whether e passes every condition.
func (c Criteria) Match(e Entry) bool {
	if e.SourceCountry != c.SourceCountry {
		return false
	}
	if !slices.Contains(c.MissionCountries, e.MissionCountry) {
		return false
	}
	if e.AppointmentDate == "" || e.VisaSubcategory == nil {
		return false
	}
	sub := strings.ToLower(*e.VisaSubcategory)
	for _, kw := range c.Keywords {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(sub, kw) {
			return true
		}
	}
	return false
}

// Filter keeps matching entries, stable-sorted by mission country.
// The input slice is not modified.
func (c Criteria) Filter(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if c.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MissionCountry < out[j].MissionCountry
	})
	return out
}
