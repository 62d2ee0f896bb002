package screening

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DateLayout is the pt-BR day/month/year layout used on the screen.
	DateLayout = "02/01/2006 15:04"

	DefaultObservationWidth = 60
	ellipsis                = "…"
)

// Formatter turns raw screening fields into display text.
type Formatter struct {
	Location         *time.Location
	ObservationWidth int
}

// NewFormatter loads the named IANA zone, falling back to UTC when the name
// is empty or unknown.
func NewFormatter(timezone string) Formatter {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return Formatter{Location: loc, ObservationWidth: DefaultObservationWidth}
}

// Date formats t in the formatter's zone; the zero time renders as "".
func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// CourseTerm joins course and term as "Course - Term", dropping whichever
// side is empty.
func CourseTerm(course, term string) string {
	course, term = strings.TrimSpace(course), strings.TrimSpace(term)
	switch {
	case course != "" && term != "":
		return course + " - " + term
	case course != "":
		return course
	default:
		return term
	}
}

// Truncate shortens s to width runes, appending an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:width]), " ") + ellipsis
}

func (f Formatter) Observation(s string) string {
	w := f.ObservationWidth
	if w == 0 {
		w = DefaultObservationWidth
	}
	return Truncate(s, w)
}

func itoa(n int) string { return strconv.Itoa(n) }
