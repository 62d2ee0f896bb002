package screening

import (
	"context"
	"fmt"
	"time"
)

var baseTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestScreening(id, name, registration, course, term, availability string, age time.Duration) *Screening {
	return &Screening{
		ID:           id,
		CreatedAt:    baseTime.Add(-age),
		ScorePHQ9:    5,
		ScoreGAD7:    3,
		RiskPHQ9:     RiskMild,
		RiskGAD7:     RiskMinimal,
		Availability: availability,
		Observation:  "Sem observações",
		Report:       "Relatório de " + name,
		Student: &Student{
			Name:         name,
			Registration: registration,
			Course:       course,
			Term:         term,
			MessagingID:  "tg-" + id,
		},
	}
}

func sampleScreenings() []*Screening {
	return []*Screening{
		newTestScreening("s1", "Ana Souza", "2021001", "Psicologia", "3º", "Manhã", 1*time.Hour),
		newTestScreening("s2", "Bruno Lima", "2020456", "Engenharia Civil", "7º", "Tarde", 2*time.Hour),
		newTestScreening("s3", "Carla Dias", "2022789", "Medicina", "1º", "Noite", 30*time.Minute),
		newTestScreening("s4", "Diego Alves", "2019333", "Direito", "9º", "Manhã e tarde", 5*time.Hour),
		{ID: "s5", CreatedAt: baseTime.Add(-3 * time.Hour), RiskPHQ9: RiskSevere, RiskGAD7: RiskModerate, Availability: "Sábado"},
	}
}

func manyScreenings(n int) []*Screening {
	out := make([]*Screening, n)
	for i := range out {
		id := fmt.Sprintf("m%03d", i)
		out[i] = newTestScreening(id, "Aluno "+id, id, "Curso", "1º", "Manhã", time.Duration(i)*time.Minute)
	}
	return out
}

func staticSource(items []*Screening) Source {
	return SourceFunc(func(_ context.Context, _ int) ([]*Screening, error) {
		return items, nil
	})
}

func ids(list []*Screening) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
