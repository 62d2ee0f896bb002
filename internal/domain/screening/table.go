package screening

import (
	"sort"
	"strings"

	"github.com/mentalcheck/screening-admin/pkg/pagination"
)

// Column keys.
const (
	ColCreatedAt    = "createdAt"
	ColName         = "name"
	ColRegistration = "registration"
	ColCourseTerm   = "courseTerm"
	ColScorePHQ9    = "scorePHQ9"
	ColScoreGAD7    = "scoreGAD7"
	ColRisk         = "risk"
	ColAvailability = "availability"
	ColObservation  = "observation"
	ColReport       = "report"
	ColMessagingID  = "messagingId"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Badge is one color-coded risk indicator.
type Badge struct {
	Instrument string `json:"instrument"`
	Level      string `json:"level"`
	Label      string `json:"label"`
	Color      string `json:"color"`
}

func NewBadge(instrument string, level RiskLevel) Badge {
	return Badge{Instrument: instrument, Level: string(level), Label: level.Label(), Color: level.Color()}
}

// Cell is the rendered content of one column for one row. Title carries the
// full text when Text is truncated.
type Cell struct {
	Key    string  `json:"key"`
	Text   string  `json:"text,omitempty"`
	Title  string  `json:"title,omitempty"`
	Badges []Badge `json:"badges,omitempty"`
	Action bool    `json:"action,omitempty"`
}

// Column declares one table column. Sortable columns supply a less func.
type Column struct {
	Key        string `json:"key"`
	Header     string `json:"header"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`

	cell func(s *Screening, f Formatter) Cell
	less func(a, b *Screening) bool
}

func textCol(key, header string, value func(s *Screening, f Formatter) string, less func(a, b *Screening) bool) Column {
	return Column{
		Key: key, Header: header, Sortable: true, Filterable: true,
		cell: func(s *Screening, f Formatter) Cell { return Cell{Key: key, Text: value(s, f)} },
		less: less,
	}
}

func byText(get func(*Screening) string) func(a, b *Screening) bool {
	return func(a, b *Screening) bool {
		return strings.ToLower(get(a)) < strings.ToLower(get(b))
	}
}

// Columns is the screening table layout, in display order.
var Columns = []Column{
	textCol(ColCreatedAt, "Data",
		func(s *Screening, f Formatter) string { return f.Date(s.CreatedAt) },
		func(a, b *Screening) bool { return a.CreatedAt.Before(b.CreatedAt) }),
	textCol(ColName, "Nome",
		func(s *Screening, _ Formatter) string { return s.StudentName() },
		byText((*Screening).StudentName)),
	textCol(ColRegistration, "Matrícula",
		func(s *Screening, _ Formatter) string { return s.Registration() },
		byText((*Screening).Registration)),
	textCol(ColCourseTerm, "Curso/Período",
		func(s *Screening, _ Formatter) string { return CourseTerm(s.Course(), s.Term()) },
		byText(func(s *Screening) string { return CourseTerm(s.Course(), s.Term()) })),
	textCol(ColScorePHQ9, "PHQ-9",
		func(s *Screening, _ Formatter) string { return itoa(s.ScorePHQ9) },
		func(a, b *Screening) bool { return a.ScorePHQ9 < b.ScorePHQ9 }),
	textCol(ColScoreGAD7, "GAD-7",
		func(s *Screening, _ Formatter) string { return itoa(s.ScoreGAD7) },
		func(a, b *Screening) bool { return a.ScoreGAD7 < b.ScoreGAD7 }),
	{
		Key: ColRisk, Header: "Risco",
		cell: func(s *Screening, _ Formatter) Cell {
			return Cell{Key: ColRisk, Badges: []Badge{
				NewBadge("PHQ-9", s.RiskPHQ9),
				NewBadge("GAD-7", s.RiskGAD7),
			}}
		},
	},
	textCol(ColAvailability, "Disponibilidade",
		func(s *Screening, _ Formatter) string { return s.Availability },
		byText(func(s *Screening) string { return s.Availability })),
	{
		Key: ColObservation, Header: "Observação", Sortable: true, Filterable: true,
		cell: func(s *Screening, f Formatter) Cell {
			return Cell{Key: ColObservation, Text: f.Observation(s.Observation), Title: s.Observation}
		},
		less: byText(func(s *Screening) string { return s.Observation }),
	},
	{
		Key: ColReport, Header: "Relatório",
		cell: func(s *Screening, _ Formatter) Cell { return Cell{Key: ColReport, Action: true} },
	},
	textCol(ColMessagingID, "Contato",
		func(s *Screening, _ Formatter) string { return s.MessagingID() },
		byText((*Screening).MessagingID)),
}

// ColumnByKey looks up a column definition.
func ColumnByKey(key string) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Row is one rendered screening. Cells line up with Columns.
type Row struct {
	ID           string  `json:"id"`
	CreatedAt    string  `json:"createdAt"`
	Name         string  `json:"name"`
	Registration string  `json:"registration"`
	CourseTerm   string  `json:"courseTerm"`
	ScorePHQ9    int     `json:"scorePHQ9"`
	ScoreGAD7    int     `json:"scoreGAD7"`
	Risk         []Badge `json:"risk"`
	Availability string  `json:"availability"`
	Observation  string  `json:"observation"`
	MessagingID  string  `json:"messagingId"`
	Cells        []Cell  `json:"-"`
}

// NewRow renders s. A missing student renders as empty strings.
func NewRow(s *Screening, f Formatter) Row {
	r := Row{
		ID:           s.ID,
		CreatedAt:    f.Date(s.CreatedAt),
		Name:         s.StudentName(),
		Registration: s.Registration(),
		CourseTerm:   CourseTerm(s.Course(), s.Term()),
		ScorePHQ9:    s.ScorePHQ9,
		ScoreGAD7:    s.ScoreGAD7,
		Risk:         []Badge{NewBadge("PHQ-9", s.RiskPHQ9), NewBadge("GAD-7", s.RiskGAD7)},
		Availability: s.Availability,
		Observation:  s.Observation,
		MessagingID:  s.MessagingID(),
		Cells:        make([]Cell, len(Columns)),
	}
	for i, c := range Columns {
		r.Cells[i] = c.cell(s, f)
	}
	return r
}

// TableOptions selects what BuildTable renders.
type TableOptions struct {
	Query string
	Sort  string
	Dir   string
	Page  int
	Size  int
}

// Table is the filtered, sorted, paginated view of the loaded screenings.
type Table struct {
	Columns []Column        `json:"columns"`
	Rows    []Row           `json:"rows"`
	Query   string          `json:"query"`
	Sort    string          `json:"sort"`
	Dir     string          `json:"dir"`
	Loaded  int             `json:"loaded"`
	Matched int             `json:"matched"`
	Page    pagination.Page `json:"page"`
}

// NormalizeSort returns the effective sort column and direction. Unknown or
// non-sortable columns fall back to creation date, newest first.
func NormalizeSort(key, dir string) (string, string) {
	col, ok := ColumnByKey(key)
	if !ok || !col.Sortable {
		return ColCreatedAt, SortDesc
	}
	if dir != SortAsc && dir != SortDesc {
		if key == ColCreatedAt {
			dir = SortDesc
		} else {
			dir = SortAsc
		}
	}
	return key, dir
}

// Sorted returns a sorted copy of list. The sort is stable so equal keys keep
// their fetch order.
func Sorted(list []*Screening, key, dir string) []*Screening {
	key, dir = NormalizeSort(key, dir)
	col, _ := ColumnByKey(key)
	out := make([]*Screening, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == SortDesc {
			return col.less(out[j], out[i])
		}
		return col.less(out[i], out[j])
	})
	return out
}

// BuildTable filters records by opts.Query, sorts and cuts out one page.
func BuildTable(records []*Screening, opts TableOptions, f Formatter) Table {
	key, dir := NormalizeSort(opts.Sort, opts.Dir)

	var present []*Screening
	for _, s := range records {
		if s != nil {
			present = append(present, s)
		}
	}
	matched := Sorted(Filter(present, opts.Query), key, dir)

	page := pagination.NewPage(pagination.Params{Page: opts.Page, Size: opts.Size}, len(matched))
	start, end := page.Bounds()
	rows := make([]Row, 0, end-start)
	for _, s := range matched[start:end] {
		rows = append(rows, NewRow(s, f))
	}

	return Table{
		Columns: Columns,
		Rows:    rows,
		Query:   strings.TrimSpace(opts.Query),
		Sort:    key,
		Dir:     dir,
		Loaded:  len(present),
		Matched: len(matched),
		Page:    page,
	}
}
