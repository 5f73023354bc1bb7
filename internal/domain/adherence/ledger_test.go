package adherence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/platform/civil"
)

// -------------------------
// Fakes
// -------------------------

type fakeMeds struct {
	items []medications.Medication
}

func (f *fakeMeds) GetByID(ctx context.Context, ownerUserID, id string) (medications.Medication, error) {
	for _, m := range f.items {
		if m.ID == id && m.OwnerUserID == ownerUserID && m.Active {
			return m, nil
		}
	}
	return medications.Medication{}, medications.ErrNotFound
}

func (f *fakeMeds) ListByOwner(ctx context.Context, ownerUserID string) ([]medications.Medication, error) {
	out := make([]medications.Medication, 0)
	for _, m := range f.items {
		if m.OwnerUserID == ownerUserID && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMeds) ListOwners(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, m := range f.items {
		if m.Active && !seen[m.OwnerUserID] {
			seen[m.OwnerUserID] = true
			out = append(out, m.OwnerUserID)
		}
	}
	return out, nil
}

type fakeRepo struct {
	mu     sync.Mutex
	seq    int64
	events []Event
}

func (r *fakeRepo) Append(ctx context.Context, e Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	return e, nil
}

func (r *fakeRepo) AppendIfAbsent(ctx context.Context, e Event) (Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.events {
		if ex.MedicationID == e.MedicationID && ex.ScheduledAt.Equal(e.ScheduledAt) {
			return ex, false, nil
		}
	}
	r.seq++
	e.Seq = r.seq
	r.events = append(r.events, e)
	return e, true, nil
}

func (r *fakeRepo) History(ctx context.Context, medicationID string, scheduledAt time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.events {
		if e.MedicationID == medicationID && e.ScheduledAt.Equal(scheduledAt) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListInRange(ctx context.Context, medicationIDs []string, from, to time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range medicationIDs {
		ids[id] = true
	}
	out := make([]Event, 0)
	for _, e := range r.events {
		if ids[e.MedicationID] && !e.ScheduledAt.Before(from) && e.ScheduledAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// -------------------------
// Helpers
// -------------------------

var day1 = civil.Date{Year: 2025, Month: time.May, Day: 1}

func at(d civil.Date, hhmm string) time.Time {
	c, err := civil.ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	return d.At(c, time.UTC)
}

func twiceDaily(id, owner string) medications.Medication {
	m, err := medications.Build(medications.Draft{
		Name:      "Metformin",
		Dosage:    "500mg",
		Frequency: "twice_daily",
		TimeOfDay: []string{"08:00", "20:00"},
		StartDate: day1.String(),
	})
	if err != nil {
		panic(err)
	}
	m.ID = id
	m.OwnerUserID = owner
	return m
}

type fixture struct {
	ledger *Ledger
	agg    *Aggregator
	repo   *fakeRepo
	meds   *fakeMeds
	now    time.Time
}

func newFixture(now time.Time, meds ...medications.Medication) *fixture {
	f := &fixture{
		repo: &fakeRepo{},
		meds: &fakeMeds{items: meds},
		now:  now,
	}
	f.ledger = NewLedger(f.repo, f.meds, Options{Location: time.UTC, GracePeriod: time.Hour})
	f.ledger.now = func() time.Time { return f.now }
	f.agg = NewAggregator(f.ledger)
	return f
}

// -------------------------
// Tests
// -------------------------

func TestLog_TakenThenSkipped_KeepsHistory(t *testing.T) {
	f := newFixture(at(day1, "09:00"), twiceDaily("m1", "u1"))
	ctx := context.Background()
	dose := at(day1, "08:00")

	if _, err := f.ledger.Log(ctx, "u1", LogInput{MedicationID: "m1", ScheduledAt: dose, Status: "taken"}); err != nil {
		t.Fatalf("log taken: %v", err)
	}
	f.now = f.now.Add(time.Minute)
	if _, err := f.ledger.Log(ctx, "u1", LogInput{MedicationID: "m1", ScheduledAt: dose, Status: "skipped"}); err != nil {
		t.Fatalf("log skipped: %v", err)
	}

	st, err := f.ledger.StatusOf(ctx, "u1", "m1", dose)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st != StatusSkipped {
		t.Fatalf("expected skipped, got %s", st)
	}

	hist, err := f.ledger.History(ctx, "u1", "m1", dose)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].Status != StatusTaken || hist[1].Status != StatusSkipped {
		t.Fatalf("expected [taken skipped], got %+v", hist)
	}
	if hist[0].Seq >= hist[1].Seq {
		t.Fatalf("expected increasing seq")
	}
}

func TestLog_RejectsStatus(t *testing.T) {
	f := newFixture(at(day1, "09:00"), twiceDaily("m1", "u1"))

	for _, s := range []string{"pending", "done", ""} {
		_, err := f.ledger.Log(context.Background(), "u1", LogInput{MedicationID: "m1", ScheduledAt: at(day1, "08:00"), Status: s})
		if !errors.Is(err, ErrInvalidStatus) || !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("status %q: expected ErrInvalidStatus, got %v", s, err)
		}
	}
	if len(f.repo.events) != 0 {
		t.Fatalf("rejected logs must not write")
	}
}

func TestLog_InvalidDoseReference(t *testing.T) {
	f := newFixture(at(day1, "09:00"), twiceDaily("m1", "u1"))
	ctx := context.Background()

	cases := map[string]time.Time{
		"unaligned slot":   at(day1, "08:30"),
		"before start":     at(day1.AddDays(-1), "08:00"),
		"different minute": at(day1, "20:01"),
	}
	for name, ts := range cases {
		_, err := f.ledger.Log(ctx, "u1", LogInput{MedicationID: "m1", ScheduledAt: ts, Status: "taken"})
		if !errors.Is(err, ErrInvalidDoseReference) {
			t.Fatalf("%s: expected ErrInvalidDoseReference, got %v", name, err)
		}
	}
	if len(f.repo.events) != 0 {
		t.Fatalf("rejected logs must not write")
	}
}

func TestLog_ForeignMedicationIsNotFound(t *testing.T) {
	f := newFixture(at(day1, "09:00"), twiceDaily("m1", "u1"))

	_, err := f.ledger.Log(context.Background(), "u2", LogInput{MedicationID: "m1", ScheduledAt: at(day1, "08:00"), Status: "taken"})
	if !errors.Is(err, medications.ErrNotFound) {
		t.Fatalf("expected medications.ErrNotFound, got %v", err)
	}
}

func TestStatusOf_PendingThenMissedAfterGrace(t *testing.T) {
	f := newFixture(at(day1, "20:30"), twiceDaily("m1", "u1"))
	ctx := context.Background()
	dose := at(day1, "20:00")

	st, _ := f.ledger.StatusOf(ctx, "u1", "m1", dose)
	if st != StatusPending {
		t.Fatalf("within grace: expected pending, got %s", st)
	}

	f.now = at(day1, "21:00")
	st, _ = f.ledger.StatusOf(ctx, "u1", "m1", dose)
	if st != StatusPending {
		t.Fatalf("exactly at grace: expected pending, got %s", st)
	}

	f.now = at(day1, "21:01")
	st, _ = f.ledger.StatusOf(ctx, "u1", "m1", dose)
	if st != StatusMissed {
		t.Fatalf("after grace: expected missed, got %s", st)
	}
}

func TestSweepMissed_IdempotentAndNeverOverwrites(t *testing.T) {
	f := newFixture(at(day1, "09:00"), twiceDaily("m1", "u1"))
	ctx := context.Background()

	// 08:00 se registra taken; 20:00 queda sin registrar
	if _, err := f.ledger.Log(ctx, "u1", LogInput{MedicationID: "m1", ScheduledAt: at(day1, "08:00"), Status: "taken"}); err != nil {
		t.Fatalf("log: %v", err)
	}

	f.now = at(day1.AddDays(1), "07:00")

	n, err := f.ledger.SweepMissed(ctx, "u1")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 missed event, got %d", n)
	}

	n, err = f.ledger.SweepAll(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep must not create events, got %d", n)
	}

	st, _ := f.ledger.StatusOf(ctx, "u1", "m1", at(day1, "08:00"))
	if st != StatusTaken {
		t.Fatalf("sweep overwrote explicit status: %s", st)
	}

	hist, _ := f.ledger.History(ctx, "u1", "m1", at(day1, "20:00"))
	if len(hist) != 1 || hist[0].Status != StatusMissed || hist[0].Source != SourceSweep {
		t.Fatalf("expected one sweep missed event, got %+v", hist)
	}
}

func TestSweepMissed_RespectsGraceAndLookback(t *testing.T) {
	f := newFixture(at(day1, "08:30"), twiceDaily("m1", "u1"))
	f.ledger.lookback = 24 * time.Hour
	ctx := context.Background()

	if n, _ := f.ledger.SweepMissed(ctx, "u1"); n != 0 {
		t.Fatalf("08:00 still in grace, expected 0, got %d", n)
	}

	// Diez días después solo se miran las últimas 24h.
	f.now = at(day1.AddDays(10), "12:00")
	n, err := f.ledger.SweepMissed(ctx, "u1")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 (yesterday 20:00, today 08:00), got %d", n)
	}
}

func TestParseScheduledTime(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	l := NewLedger(&fakeRepo{}, &fakeMeds{}, Options{Location: loc})

	got, err := l.ParseScheduledTime("2025-05-01T08:00:00")
	if err != nil {
		t.Fatalf("naive: %v", err)
	}
	if !got.Equal(time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("naive time must use configured zone, got %v", got.UTC())
	}

	got, err = l.ParseScheduledTime("2025-05-01T08:00:00Z")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if !got.Equal(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected rfc3339 parse: %v", got)
	}

	if _, err := l.ParseScheduledTime("yesterday"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
