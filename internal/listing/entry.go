// Package listing fetches visa appointment listings and reduces them to the
// entries worth reporting.
package listing

// Entry is one row of the listing API response. Unknown fields are ignored.
//
// VisaSubcategory is a pointer so a JSON null (or a missing key) can be told
// apart from an empty string.
type Entry struct {
	SourceCountry   string  `json:"source_country"`
	MissionCountry  string  `json:"mission_country"`
	AppointmentDate string  `json:"appointment_date"`
	VisaSubcategory *string `json:"visa_subcategory"`
	CenterName      string  `json:"center_name"`

	// Informational only; never used for filtering or rendering.
	VisaCategory string `json:"visa_category,omitempty"`
	BookNowLink  string `json:"book_now_link,omitempty"`
	LastChecked  string `json:"last_checked,omitempty"`
}

// Subcategory returns the visa subcategory, or "" when absent.
func (e Entry) Subcategory() string {
	if e.VisaSubcategory == nil {
		return ""
	}
	return *e.VisaSubcategory
}
