package screening

import (
	"time"
)

// RiskLevel is the severity bucket a questionnaire score falls into.
type RiskLevel string

const (
	RiskMinimal          RiskLevel = "MINIMO"
	RiskMild             RiskLevel = "LEVE"
	RiskModerate         RiskLevel = "MODERADO"
	RiskModeratelySevere RiskLevel = "MODERADAMENTE_GRAVE"
	RiskSevere           RiskLevel = "GRAVE"
)

// Badge colors, named after the palette the admin screen uses.
const (
	ColorSuccess = "success"
	ColorInfo    = "info"
	ColorWarning = "warning"
	ColorError   = "error"
	ColorDefault = "default"
)

// RiskLevels lists the closed severity scale in ascending order.
var RiskLevels = []RiskLevel{
	RiskMinimal, RiskMild, RiskModerate, RiskModeratelySevere, RiskSevere,
}

var riskLabels = map[RiskLevel]string{
	RiskMinimal:          "Mínimo",
	RiskMild:             "Leve",
	RiskModerate:         "Moderado",
	RiskModeratelySevere: "Moderadamente grave",
	RiskSevere:           "Grave",
}

var riskColors = map[RiskLevel]string{
	RiskMinimal:          ColorSuccess,
	RiskMild:             ColorInfo,
	RiskModerate:         ColorWarning,
	RiskModeratelySevere: ColorWarning,
	RiskSevere:           ColorError,
}

// Valid reports whether r is one of the five known levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskLabels[r]
	return ok
}

// Label returns the display label. Unknown values are shown as-is.
func (r RiskLevel) Label() string {
	if l, ok := riskLabels[r]; ok {
		return l
	}
	return string(r)
}

// Color returns the badge color for the level.
func (r RiskLevel) Color() string {
	if c, ok := riskColors[r]; ok {
		return c
	}
	return ColorDefault
}

// Severity returns the 1-based position on the scale, 0 when unknown.
func (r RiskLevel) Severity() int {
	for i, lvl := range RiskLevels {
		if lvl == r {
			return i + 1
		}
	}
	return 0
}

// PHQ9Risk buckets a PHQ-9 score (0-27) with the usual 5/10/15/20 cutoffs.
func PHQ9Risk(score int) RiskLevel {
	switch {
	case score >= 20:
		return RiskSevere
	case score >= 15:
		return RiskModeratelySevere
	case score >= 10:
		return RiskModerate
	case score >= 5:
		return RiskMild
	default:
		return RiskMinimal
	}
}

// GAD7Risk buckets a GAD-7 score (0-21). GAD-7 has no "moderately severe"
// band; 15 and above is severe.
func GAD7Risk(score int) RiskLevel {
	switch {
	case score >= 15:
		return RiskSevere
	case score >= 10:
		return RiskModerate
	case score >= 5:
		return RiskMild
	default:
		return RiskMinimal
	}
}

// Student is the denormalized student record embedded in a Screening.
type Student struct {
	Name         string `db:"student_name" json:"name"`
	Registration string `db:"student_registration" json:"registration"`
	Course       string `db:"student_course" json:"course"`
	Term         string `db:"student_term" json:"term"`
	MessagingID  string `db:"student_messaging_id" json:"messagingId"`
}

// Screening maps to the screening table: one submitted PHQ-9/GAD-7 questionnaire.
type Screening struct {
	ID           string    `db:"id" json:"id"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	ScorePHQ9    int       `db:"score_phq9" json:"scorePHQ9"`
	ScoreGAD7    int       `db:"score_gad7" json:"scoreGAD7"`
	RiskPHQ9     RiskLevel `db:"risk_phq9" json:"riskPHQ9"`
	RiskGAD7     RiskLevel `db:"risk_gad7" json:"riskGAD7"`
	Availability string    `db:"availability" json:"availability"`
	Observation  string    `db:"observation" json:"observation"`
	Report       string    `db:"report" json:"report"`
	Student      *Student  `json:"student,omitempty"`
}

// The accessors below tolerate a missing student and return "".

func (s *Screening) StudentName() string {
	if s == nil || s.Student == nil {
		return ""
	}
	return s.Student.Name
}

func (s *Screening) Registration() string {
	if s == nil || s.Student == nil {
		return ""
	}
	return s.Student.Registration
}

func (s *Screening) Course() string {
	if s == nil || s.Student == nil {
		return ""
	}
	return s.Student.Course
}

func (s *Screening) Term() string {
	if s == nil || s.Student == nil {
		return ""
	}
	return s.Student.Term
}

func (s *Screening) MessagingID() string {
	if s == nil || s.Student == nil {
		return ""
	}
	return s.Student.MessagingID
}
