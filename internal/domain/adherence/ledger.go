package adherence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/domain/schedule"
	"medication-adherence/internal/platform/civil"

	"github.com/google/uuid"
)

const (
	DefaultGracePeriod = time.Hour
	DefaultLookback    = 7 * 24 * time.Hour
)

// MedicationLookup es lo que el ledger necesita del registro.
// *medications.Service lo implementa.
type MedicationLookup interface {
	GetByID(ctx context.Context, ownerUserID, id string) (medications.Medication, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]medications.Medication, error)
	ListOwners(ctx context.Context) ([]string, error)
}

type Options struct {
	Location    *time.Location
	GracePeriod time.Duration

	// Lookback limita hasta dónde mira hacia atrás el sweep de missed.
	Lookback time.Duration

	// Now permite fijar el reloj (tests, sweep manual). nil = time.Now.
	Now func() time.Time
}

type Ledger struct {
	repo Repository
	meds MedicationLookup

	loc      *time.Location
	grace    time.Duration
	lookback time.Duration

	now func() time.Time
}

func NewLedger(repo Repository, meds MedicationLookup, opts Options) *Ledger {
	l := &Ledger{
		repo:     repo,
		meds:     meds,
		loc:      opts.Location,
		grace:    opts.GracePeriod,
		lookback: opts.Lookback,
		now:      time.Now,
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	if l.grace <= 0 {
		l.grace = DefaultGracePeriod
	}
	if l.lookback <= 0 {
		l.lookback = DefaultLookback
	}
	if opts.Now != nil {
		l.now = opts.Now
	}
	return l
}

func (l *Ledger) Location() *time.Location { return l.loc }

func (l *Ledger) Now() time.Time { return l.now() }

func (l *Ledger) Today() civil.Date { return civil.Today(l.now(), l.loc) }

type LogInput struct {
	MedicationID string
	ScheduledAt  time.Time
	Status       string
	Note         string
}

// Log registra una acción explícita sobre una toma. La toma tiene que ser
// una que el generador produciría para esa medicación; si no, ErrInvalidDoseReference.
func (l *Ledger) Log(ctx context.Context, ownerUserID string, in LogInput) (Event, error) {
	st, err := ParseLoggable(in.Status)
	if err != nil {
		return Event{}, err
	}

	dose, err := l.resolveDose(ctx, ownerUserID, in.MedicationID, in.ScheduledAt)
	if err != nil {
		return Event{}, err
	}

	e := Event{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		MedicationID: dose.MedicationID,
		ScheduledAt:  dose.ScheduledAt,
		Status:       st,
		Source:       SourceUser,
		LoggedAt:     l.now(),
		Note:         strings.TrimSpace(in.Note),
	}

	saved, err := l.repo.Append(ctx, e)
	if err != nil {
		return Event{}, fmt.Errorf("append adherence event: %w", err)
	}
	return saved, nil
}

// StatusOf devuelve el estado vigente: el último evento, o missed/pending según la gracia.
func (l *Ledger) StatusOf(ctx context.Context, ownerUserID, medicationID string, at time.Time) (Status, error) {
	dose, err := l.resolveDose(ctx, ownerUserID, medicationID, at)
	if err != nil {
		return "", err
	}
	events, err := l.repo.History(ctx, dose.MedicationID, dose.ScheduledAt)
	if err != nil {
		return "", err
	}
	var latest *Event
	if len(events) > 0 {
		latest = &events[len(events)-1]
	}
	return l.resolve(latest, dose.ScheduledAt, l.now()), nil
}

// History devuelve el rastro completo de una toma (más viejo primero).
func (l *Ledger) History(ctx context.Context, ownerUserID, medicationID string, at time.Time) ([]Event, error) {
	dose, err := l.resolveDose(ctx, ownerUserID, medicationID, at)
	if err != nil {
		return nil, err
	}
	return l.repo.History(ctx, dose.MedicationID, dose.ScheduledAt)
}

// StatusesFor resuelve el estado de varias tomas con una sola lectura del log.
// El resultado está indexado por DoseInstance.Key().
func (l *Ledger) StatusesFor(ctx context.Context, doses []schedule.DoseInstance) (map[string]Status, error) {
	out := make(map[string]Status, len(doses))
	if len(doses) == 0 {
		return out, nil
	}

	ids := make([]string, 0)
	seenID := map[string]bool{}
	from, to := doses[0].ScheduledAt, doses[0].ScheduledAt
	for _, d := range doses {
		if !seenID[d.MedicationID] {
			seenID[d.MedicationID] = true
			ids = append(ids, d.MedicationID)
		}
		if d.ScheduledAt.Before(from) {
			from = d.ScheduledAt
		}
		if d.ScheduledAt.After(to) {
			to = d.ScheduledAt
		}
	}

	events, err := l.repo.ListInRange(ctx, ids, from, to.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("list adherence events: %w", err)
	}

	// Orden por Seq ascendente: el último que se asigna es el vigente.
	latest := make(map[string]Event, len(events))
	for _, e := range events {
		latest[doseKey(e.MedicationID, e.ScheduledAt)] = e
	}

	now := l.now()
	for _, d := range doses {
		var ev *Event
		if e, ok := latest[doseKey(d.MedicationID, d.ScheduledAt)]; ok {
			ev = &e
		}
		out[d.Key()] = l.resolve(ev, d.ScheduledAt, now)
	}
	return out, nil
}

// SweepMissed materializa eventos missed para las tomas vencidas (más la gracia)
// sin ningún evento. Nunca pisa un estado existente, así que correrlo dos veces
// no cambia nada.
func (l *Ledger) SweepMissed(ctx context.Context, ownerUserID string) (int, error) {
	meds, err := l.meds.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return 0, err
	}

	now := l.now()
	cutoff := now.Add(-l.grace)
	from := now.Add(-l.lookback)

	created := 0
	for _, m := range meds {
		for _, d := range schedule.Between(m, from, cutoff, l.loc) {
			_, inserted, err := l.repo.AppendIfAbsent(ctx, Event{
				ID:           uuid.NewString(),
				OwnerUserID:  ownerUserID,
				MedicationID: d.MedicationID,
				ScheduledAt:  d.ScheduledAt,
				Status:       StatusMissed,
				Source:       SourceSweep,
				LoggedAt:     now,
			})
			if err != nil {
				return created, fmt.Errorf("sweep %s: %w", d.Key(), err)
			}
			if inserted {
				created++
			}
		}
	}
	return created, nil
}

// SweepAll corre SweepMissed para cada usuario con medicaciones.
func (l *Ledger) SweepAll(ctx context.Context) (int, error) {
	owners, err := l.meds.ListOwners(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := l.SweepMissed(ctx, owner)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ParseScheduledTime acepta RFC3339 o ISO-8601 sin zona ("2025-03-01T08:00:00"),
// que se interpreta en la zona configurada.
func (l *Ledger) ParseScheduledTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, l.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: scheduled_time must be RFC3339 or YYYY-MM-DDTHH:MM:SS", ErrInvalidInput)
}

func (l *Ledger) resolveDose(ctx context.Context, ownerUserID, medicationID string, at time.Time) (schedule.DoseInstance, error) {
	m, err := l.meds.GetByID(ctx, ownerUserID, medicationID)
	if err != nil {
		return schedule.DoseInstance{}, err
	}
	dose, ok := schedule.Contains(m, at, l.loc)
	if !ok {
		return schedule.DoseInstance{}, ErrInvalidDoseReference
	}
	return dose, nil
}

func (l *Ledger) resolve(latest *Event, scheduledAt, now time.Time) Status {
	if latest != nil {
		return latest.Status
	}
	if scheduledAt.Add(l.grace).Before(now) {
		return StatusMissed
	}
	return StatusPending
}
