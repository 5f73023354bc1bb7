package adherence

import (
	"context"
	"fmt"
	"math"

	"medication-adherence/internal/domain/schedule"
	"medication-adherence/internal/platform/civil"
)

const (
	DefaultStatsDays = 30
	MaxStatsDays     = 366
)

// Aggregator calcula estadísticas a partir del ledger. No cachea nada:
// cada llamada vuelve a generar las tomas y a leer el log.
type Aggregator struct {
	ledger *Ledger
}

func NewAggregator(l *Ledger) *Aggregator {
	return &Aggregator{ledger: l}
}

// LastDays es el rango de n días que termina hoy (inclusive).
func (a *Aggregator) LastDays(ctx context.Context, ownerUserID string, n int) (Stats, error) {
	if n < 1 || n > MaxStatsDays {
		return Stats{}, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, MaxStatsDays)
	}
	today := a.ledger.Today()
	return a.Stats(ctx, ownerUserID, today.AddDays(-(n - 1)), today)
}

// Stats cubre [from, to] (días inclusive) sobre todas las medicaciones no
// borradas del usuario, incluidas las ya finalizadas que se solapan con el rango.
func (a *Aggregator) Stats(ctx context.Context, ownerUserID string, from, to civil.Date) (Stats, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return Stats{}, ErrInvalidRange
	}
	if to.DaysSince(from)+1 > MaxStatsDays {
		return Stats{}, fmt.Errorf("%w: range longer than %d days", ErrInvalidInput, MaxStatsDays)
	}

	meds, err := a.ledger.meds.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return Stats{}, err
	}

	doses := make([]schedule.DoseInstance, 0)
	for _, m := range meds {
		doses = append(doses, schedule.Generate(m, from, to, a.ledger.loc)...)
	}

	statuses, err := a.ledger.StatusesFor(ctx, doses)
	if err != nil {
		return Stats{}, err
	}

	out := Stats{
		From:  from,
		To:    to,
		Daily: make(map[civil.Date]DayStats, to.DaysSince(from)+1),
	}
	for d := from; !d.After(to); d = d.AddDays(1) {
		out.Daily[d] = DayStats{}
	}

	for _, dose := range doses {
		day := out.Daily[dose.Date]
		switch statuses[dose.Key()] {
		case StatusTaken:
			out.Taken++
			day.Taken++
		case StatusMissed:
			out.Missed++
			day.Missed++
		case StatusSkipped:
			out.Skipped++
			day.Skipped++
		default:
			out.Pending++
			day.Pending++
		}
		out.TotalDoses++
		day.Total++
		out.Daily[dose.Date] = day
	}

	out.AdherenceRate = Rate(out.Taken, out.TotalDoses)
	for d, day := range out.Daily {
		day.AdherenceRate = Rate(day.Taken, day.Total)
		out.Daily[d] = day
	}
	return out, nil
}

// Rate es taken/total en porcentaje con un decimal; 0 si no hay tomas.
func Rate(taken, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(total)*1000) / 10
}
