// Package sandbox generates synthetic screenings for demo and development
// databases. Output is reproducible for a given seed.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentalcheck/screening-admin/internal/domain/screening"
)

// SeedConfig controls the volume and shape of generated screenings.
type SeedConfig struct {
	Count int
	// Span is how far back creation times are spread from Now.
	Span time.Duration
	// OrphanEvery makes every Nth screening lose its student; 0 disables.
	OrphanEvery int
	Seed        int64
	Now         time.Time
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Count:       120,
		Span:        30 * 24 * time.Hour,
		OrphanEvery: 15,
	}
}

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Eduarda", "Felipe", "Gabriela", "Heitor",
		"Isabela", "João", "Larissa", "Mateus", "Natália", "Otávio", "Paula", "Rafael", "Sofia", "Thiago"}
	lastNames = []string{"Souza", "Lima", "Dias", "Alves", "Ferreira", "Costa", "Ribeiro", "Martins",
		"Carvalho", "Gomes", "Barbosa", "Rocha", "Araújo", "Pereira"}
	courses = []string{"Psicologia", "Medicina", "Direito", "Engenharia Civil", "Administração",
		"Enfermagem", "Ciência da Computação", "Pedagogia", "Arquitetura"}
	availabilities = []string{"Manhã", "Tarde", "Noite", "Manhã e tarde", "Sábado", "Qualquer horário"}
	observations   = []string{
		"Relata dificuldade para dormir nas últimas semanas.",
		"Prefere atendimento online.",
		"Período de provas; pede retorno após o dia 20.",
		"Já faz acompanhamento externo, quer apenas orientação.",
		"Sem observações.",
		"",
	}
)

// DataGenerator produces deterministic synthetic screenings.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator returns a generator seeded for reproducibility. If seed is
// 0 a time-based seed is chosen.
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) id() string {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// GenerateStudent produces a student with a plausible registration number.
func (g *DataGenerator) GenerateStudent() *screening.Student {
	year := 2018 + g.rng.Intn(7)
	return &screening.Student{
		Name:         g.pick(firstNames) + " " + g.pick(lastNames),
		Registration: fmt.Sprintf("%d%05d", year, g.rng.Intn(100000)),
		Course:       g.pick(courses),
		Term:         fmt.Sprintf("%dº", 1+g.rng.Intn(10)),
		MessagingID:  fmt.Sprintf("tg-%d", 100000000+g.rng.Intn(900000000)),
	}
}

// GenerateScreening produces one screening created at createdAt. Risk levels
// follow from the generated scores.
func (g *DataGenerator) GenerateScreening(createdAt time.Time) *screening.Screening {
	phq := g.rng.Intn(28)
	gad := g.rng.Intn(22)
	s := &screening.Screening{
		ID:           g.id(),
		CreatedAt:    createdAt,
		ScorePHQ9:    phq,
		ScoreGAD7:    gad,
		RiskPHQ9:     screening.PHQ9Risk(phq),
		RiskGAD7:     screening.GAD7Risk(gad),
		Availability: g.pick(availabilities),
		Observation:  g.pick(observations),
		Student:      g.GenerateStudent(),
	}
	s.Report = report(s)
	return s
}

// report writes the multi-line summary the questionnaire bot leaves.
func report(s *screening.Screening) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triagem de %s\n", s.StudentName())
	fmt.Fprintf(&b, "\nPHQ-9: %d pontos (%s)\n", s.ScorePHQ9, s.RiskPHQ9.Label())
	fmt.Fprintf(&b, "GAD-7: %d pontos (%s)\n", s.ScoreGAD7, s.RiskGAD7.Label())
	b.WriteString("\nRecomendação:\n")
	switch {
	case s.RiskPHQ9 == screening.RiskSevere || s.RiskGAD7 == screening.RiskSevere:
		b.WriteString("  - Contato prioritário em até 24 horas.\n")
	case s.RiskPHQ9.Severity() >= 3 || s.RiskGAD7.Severity() >= 3:
		b.WriteString("  - Agendar acolhimento na próxima semana.\n")
	default:
		b.WriteString("  - Oferecer material de apoio e grupos.\n")
	}
	if s.Availability != "" {
		fmt.Fprintf(&b, "  - Disponibilidade informada: %s.\n", s.Availability)
	}
	return b.String()
}

// Generate returns cfg.Count screenings, newest first.
func Generate(cfg SeedConfig) []*screening.Screening {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	span := cfg.Span
	if span <= 0 {
		span = DefaultSeedConfig().Span
	}
	g := NewDataGenerator(cfg.Seed)

	out := make([]*screening.Screening, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		step := span / time.Duration(cfg.Count+1)
		jitter := time.Duration(g.rng.Int63n(int64(step/2) + 1))
		s := g.GenerateScreening(now.Add(-time.Duration(i+1)*step + jitter).Truncate(time.Second))
		if cfg.OrphanEvery > 0 && (i+1)%cfg.OrphanEvery == 0 {
			s.Student = nil
		}
		out = append(out, s)
	}
	return out
}

// Inserter stores one screening.
type Inserter interface {
	Insert(ctx context.Context, s *screening.Screening) error
}

// SeedResult summarises a Seed run.
type SeedResult struct {
	Inserted int
	Orphans  int
	ByRisk   map[screening.RiskLevel]int
	Duration time.Duration
}

// Seed generates screenings and writes them through dst, stopping at the
// first error.
func Seed(ctx context.Context, dst Inserter, cfg SeedConfig) (*SeedResult, error) {
	start := time.Now()
	res := &SeedResult{ByRisk: make(map[screening.RiskLevel]int)}
	for _, s := range Generate(cfg) {
		if err := dst.Insert(ctx, s); err != nil {
			return res, err
		}
		res.Inserted++
		res.ByRisk[s.RiskPHQ9]++
		if s.Student == nil {
			res.Orphans++
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Source serves a fixed generated list, for running the admin screen
// without a database.
func Source(cfg SeedConfig) screening.Source {
	items := Generate(cfg)
	return screening.SourceFunc(func(ctx context.Context, limit int) ([]*screening.Screening, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limit > 0 && limit < len(items) {
			return items[:limit], nil
		}
		return items, nil
	})
}
