package screening

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGSource reads screenings from the screening table.
type PGSource struct {
	db queryable
}

func NewPGSource(pool *pgxpool.Pool) *PGSource {
	return &PGSource{db: pool}
}

const screeningCols = `id, created_at, score_phq9, score_gad7, risk_phq9, risk_gad7,
	availability, observation, report,
	student_name, student_registration, student_course, student_term, student_messaging_id`

func scanScreening(row pgx.Row) (*Screening, error) {
	var (
		s                                 Screening
		availability, observation, report *string
		name, reg, course, term, msgID    *string
	)
	err := row.Scan(&s.ID, &s.CreatedAt, &s.ScorePHQ9, &s.ScoreGAD7, &s.RiskPHQ9, &s.RiskGAD7,
		&availability, &observation, &report,
		&name, &reg, &course, &term, &msgID)
	if err != nil {
		return nil, err
	}
	s.Availability = deref(availability)
	s.Observation = deref(observation)
	s.Report = deref(report)
	if name != nil || reg != nil || course != nil || term != nil || msgID != nil {
		s.Student = &Student{
			Name:         deref(name),
			Registration: deref(reg),
			Course:       deref(course),
			Term:         deref(term),
			MessagingID:  deref(msgID),
		}
	}
	return &s, nil
}

func (r *PGSource) GetScreenings(ctx context.Context, limit int) ([]*Screening, error) {
	rows, err := r.db.Query(ctx, `SELECT `+screeningCols+` FROM screening ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query screenings: %w", err)
	}
	defer rows.Close()
	var items []*Screening
	for rows.Next() {
		s, err := scanScreening(rows)
		if err != nil {
			return nil, fmt.Errorf("scan screening: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screenings: %w", err)
	}
	return items, nil
}

// Insert stores a screening. It backs the demo seeder; the admin screen
// itself never writes.
func (r *PGSource) Insert(ctx context.Context, s *Screening) error {
	var name, reg, course, term, msgID *string
	if s.Student != nil {
		name, reg, course, term, msgID = &s.Student.Name, &s.Student.Registration,
			&s.Student.Course, &s.Student.Term, &s.Student.MessagingID
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO screening (id, created_at, score_phq9, score_gad7, risk_phq9, risk_gad7,
			availability, observation, report,
			student_name, student_registration, student_course, student_term, student_messaging_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		s.ID, s.CreatedAt, s.ScorePHQ9, s.ScoreGAD7, s.RiskPHQ9, s.RiskGAD7,
		s.Availability, s.Observation, s.Report,
		name, reg, course, term, msgID)
	if err != nil {
		return fmt.Errorf("insert screening %s: %w", s.ID, err)
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
