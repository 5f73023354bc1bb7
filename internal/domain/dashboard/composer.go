// Package dashboard arma el resumen de una sola pantalla. Solo lee: todo se
// recalcula en cada llamada a partir del registro y del ledger.
package dashboard

import (
	"context"
	"time"

	"medication-adherence/internal/domain/adherence"
	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/domain/schedule"
	"medication-adherence/internal/platform/civil"
)

const UpcomingWindow = 24 * time.Hour

type MedicationReader interface {
	ListActive(ctx context.Context, ownerUserID string, day civil.Date) ([]medications.Medication, error)
}

type TodayAdherence struct {
	Taken int
	Total int
	Rate  float64
}

type UpcomingDose struct {
	MedicationID string
	Medication   string
	Dosage       string
	ScheduledAt  time.Time
}

type Summary struct {
	ActiveMedicationCount int
	TodayAdherence        TodayAdherence
	UpcomingDoses         []UpcomingDose
}

type Composer struct {
	meds   MedicationReader
	ledger *adherence.Ledger
	agg    *adherence.Aggregator
	loc    *time.Location
}

func NewComposer(meds MedicationReader, ledger *adherence.Ledger, agg *adherence.Aggregator) *Composer {
	return &Composer{
		meds:   meds,
		ledger: ledger,
		agg:    agg,
		loc:    ledger.Location(),
	}
}

// Summary: limit <= 0 = sin límite en las próximas tomas.
func (c *Composer) Summary(ctx context.Context, ownerUserID string, now time.Time, limit int) (Summary, error) {
	today := civil.Today(now, c.loc)

	active, err := c.meds.ListActive(ctx, ownerUserID, today)
	if err != nil {
		return Summary{}, err
	}

	st, err := c.agg.Stats(ctx, ownerUserID, today, today)
	if err != nil {
		return Summary{}, err
	}

	// Próximas tomas: solo de medicaciones activas hoy, las mismas que cuenta
	// ActiveMedicationCount.
	byID := make(map[string]medications.Medication, len(active))
	doses := make([]schedule.DoseInstance, 0)
	for _, m := range active {
		byID[m.ID] = m
		doses = append(doses, schedule.Between(m, now, now.Add(UpcomingWindow), c.loc)...)
	}
	schedule.SortByTime(doses)

	statuses, err := c.ledger.StatusesFor(ctx, doses)
	if err != nil {
		return Summary{}, err
	}

	upcoming := make([]UpcomingDose, 0)
	for _, d := range doses {
		if statuses[d.Key()] != adherence.StatusPending {
			continue
		}
		m := byID[d.MedicationID]
		upcoming = append(upcoming, UpcomingDose{
			MedicationID: m.ID,
			Medication:   m.Name,
			Dosage:       m.Dosage,
			ScheduledAt:  d.ScheduledAt,
		})
		if limit > 0 && len(upcoming) == limit {
			break
		}
	}

	return Summary{
		ActiveMedicationCount: len(active),
		TodayAdherence: TodayAdherence{
			Taken: st.Taken,
			Total: st.TotalDoses,
			Rate:  st.AdherenceRate,
		},
		UpcomingDoses: upcoming,
	}, nil
}
