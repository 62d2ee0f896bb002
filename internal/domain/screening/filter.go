package screening

import "strings"

// Filter returns the screenings whose student name, registration, course,
// term or availability contains query, ignoring case and surrounding
// whitespace. A blank query returns list itself.
func Filter(list []*Screening, query string) []*Screening {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]*Screening, 0, len(list))
	for _, s := range list {
		if Matches(s, q) {
			out = append(out, s)
		}
	}
	return out
}

// Matches reports whether s matches an already trimmed, lower-cased query.
func Matches(s *Screening, q string) bool {
	if s == nil {
		return false
	}
	for _, field := range [...]string{s.StudentName(), s.Registration(), s.Course(), s.Term(), s.Availability} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
