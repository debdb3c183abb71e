package listing

import "strings"

// Render builds the alert text: one newline-terminated line per entry.
// An empty batch renders to "".
func Render(batch []Entry) string {
	var b strings.Builder
	for _, e := range batch {
		b.WriteString(e.MissionCountry)
		b.WriteString(", on date: ")
		b.WriteString(e.AppointmentDate)
		b.WriteString(" ")
		b.WriteString(e.CenterName)
		b.WriteString(" opened a tourist appointment\n")
	}
	return b.String()
}
