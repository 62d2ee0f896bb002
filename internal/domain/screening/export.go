package screening

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of spreadsheet exports.
const ExportSheet = "Triagens"

var exportHeader = []interface{}{
	"ID", "Data", "Nome", "Matrícula", "Curso/Período", "PHQ-9", "Risco PHQ-9",
	"GAD-7", "Risco GAD-7", "Disponibilidade", "Observação", "Contato", "Relatório",
}

// WriteSpreadsheet writes one row per screening, untruncated, in the given
// order.
func WriteSpreadsheet(w io.Writer, list []*Screening, f Formatter) error {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName(x.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := x.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := 2
	for _, s := range list {
		if s == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.ID,
			f.Date(s.CreatedAt),
			s.StudentName(),
			s.Registration(),
			CourseTerm(s.Course(), s.Term()),
			s.ScorePHQ9,
			s.RiskPHQ9.Label(),
			s.ScoreGAD7,
			s.RiskGAD7.Label(),
			s.Availability,
			s.Observation,
			s.MessagingID(),
			s.Report,
		}
		if err := x.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", line, err)
		}
		line++
	}

	if err := x.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := x.WriteTo(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}
