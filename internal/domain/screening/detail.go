package screening

// Detail is the content of the report dialog for one screening. Report is
// kept verbatim; the dialog renders it with whitespace preserved.
type Detail struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"createdAt"`
	Name         string `json:"name"`
	Registration string `json:"registration"`
	ScorePHQ9    int    `json:"scorePHQ9"`
	ScoreGAD7    int    `json:"scoreGAD7"`
	RiskPHQ9     Badge  `json:"riskPHQ9"`
	RiskGAD7     Badge  `json:"riskGAD7"`
	Report       string `json:"report"`
}

func NewDetail(s *Screening, f Formatter) Detail {
	return Detail{
		ID:           s.ID,
		CreatedAt:    f.Date(s.CreatedAt),
		Name:         s.StudentName(),
		Registration: s.Registration(),
		ScorePHQ9:    s.ScorePHQ9,
		ScoreGAD7:    s.ScoreGAD7,
		RiskPHQ9:     NewBadge("PHQ-9", s.RiskPHQ9),
		RiskGAD7:     NewBadge("GAD-7", s.RiskGAD7),
		Report:       s.Report,
	}
}
