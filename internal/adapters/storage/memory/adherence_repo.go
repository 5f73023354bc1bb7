package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"medication-adherence/internal/domain/adherence"
)

// adherenceRepo es un log append-only. El orden del slice es el orden de Seq.
type adherenceRepo struct {
	mu     sync.RWMutex
	seq    int64
	events []adherence.Event
	// índice por toma: posiciones en events
	byDose map[string][]int
}

func NewAdherenceRepo() adherence.Repository {
	return &adherenceRepo{
		byDose: make(map[string][]int),
	}
}

func (r *adherenceRepo) Append(ctx context.Context, e adherence.Event) (adherence.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.appendLocked(e)
}

func (r *adherenceRepo) AppendIfAbsent(ctx context.Context, e adherence.Event) (adherence.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx := r.byDose[doseKey(e.MedicationID, e.ScheduledAt)]; len(idx) > 0 {
		return r.events[idx[len(idx)-1]], false, nil
	}
	saved, err := r.appendLocked(e)
	if err != nil {
		return adherence.Event{}, false, err
	}
	return saved, true, nil
}

func (r *adherenceRepo) History(ctx context.Context, medicationID string, scheduledAt time.Time) ([]adherence.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.byDose[doseKey(medicationID, scheduledAt)]
	out := make([]adherence.Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *adherenceRepo) ListInRange(ctx context.Context, medicationIDs []string, from, to time.Time) ([]adherence.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]bool, len(medicationIDs))
	for _, id := range medicationIDs {
		ids[id] = true
	}

	out := make([]adherence.Event, 0)
	for _, e := range r.events {
		if !ids[e.MedicationID] {
			continue
		}
		if e.ScheduledAt.Before(from) || !e.ScheduledAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *adherenceRepo) appendLocked(e adherence.Event) (adherence.Event, error) {
	if e.ID == "" {
		return adherence.Event{}, errors.New("event id required")
	}
	if e.MedicationID == "" || e.ScheduledAt.IsZero() {
		return adherence.Event{}, errors.New("event dose reference required")
	}

	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)

	k := doseKey(e.MedicationID, e.ScheduledAt)
	r.byDose[k] = append(r.byDose[k], len(r.events)-1)
	return e, nil
}

func doseKey(medicationID string, at time.Time) string {
	return medicationID + "|" + at.UTC().Format(time.RFC3339)
}
