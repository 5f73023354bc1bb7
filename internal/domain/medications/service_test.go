package medications

import (
	"context"
	"errors"
	"testing"
	"time"

	"medication-adherence/internal/platform/civil"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID  map[string]Medication
	order []string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medication{}}
}

func (r *testRepo) Create(ctx context.Context, m Medication) error {
	if m.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[m.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[m.ID] = m
	r.order = append(r.order, m.ID)
	return nil
}

func (r *testRepo) Update(ctx context.Context, m Medication) error {
	if _, ok := r.byID[m.ID]; !ok {
		return ErrNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medication, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error) {
	out := make([]Medication, 0)
	for _, id := range r.order {
		if m := r.byID[id]; m.OwnerUserID == ownerUserID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) ListOwners(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, id := range r.order {
		m := r.byID[id]
		if m.Active && !seen[m.OwnerUserID] {
			seen[m.OwnerUserID] = true
			out = append(out, m.OwnerUserID)
		}
	}
	return out, nil
}

// -------------------------
// Helpers
// -------------------------

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func strPtr(s string) *string { return &s }

// -------------------------
// Tests
// -------------------------

func TestCreate_AssignsIdentity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", validDraft())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.ID == "" || m.OwnerUserID != "u1" {
		t.Fatalf("expected id and owner set, got %+v", m)
	}
	if !m.CreatedAt.Equal(svc.now()) || !m.UpdatedAt.Equal(svc.now()) {
		t.Fatalf("timestamps not set from clock")
	}
}

func TestCreate_RequiresOwner(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), " ", validDraft()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetByID_OtherOwnerIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", validDraft())
	if _, err := svc.GetByID(ctx, "u2", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", validDraft())

	updated, err := svc.Update(ctx, "u1", m.ID, UpdateInput{Dosage: strPtr("850mg")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Dosage != "850mg" || updated.Name != m.Name || len(updated.TimeOfDay) != 2 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.ID != m.ID || !updated.CreatedAt.Equal(m.CreatedAt) {
		t.Fatalf("identity must be preserved")
	}
}

func TestUpdate_RevalidatesMergedResult(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", validDraft())

	// twice_daily -> daily con dos horarios ya no es válido
	_, err := svc.Update(ctx, "u1", m.ID, UpdateInput{Frequency: strPtr("daily")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	got, _ := svc.GetByID(ctx, "u1", m.ID)
	if got.Frequency != FrequencyTwiceDaily {
		t.Fatalf("rejected update must not change state")
	}
}

func TestUpdate_EndDateSetAndClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", validDraft())

	withEnd, err := svc.Update(ctx, "u1", m.ID, UpdateInput{
		EndDate: PatchEndDate{Present: true, Value: strPtr("2025-03-10")},
	})
	if err != nil {
		t.Fatalf("set end: %v", err)
	}
	if withEnd.EndDate == nil || withEnd.EndDate.String() != "2025-03-10" {
		t.Fatalf("expected end date set, got %v", withEnd.EndDate)
	}

	cleared, err := svc.Update(ctx, "u1", m.ID, UpdateInput{EndDate: PatchEndDate{Present: true}})
	if err != nil {
		t.Fatalf("clear end: %v", err)
	}
	if cleared.EndDate != nil {
		t.Fatalf("expected end date cleared")
	}
}

func TestDelete_IsSoft(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", validDraft())
	if err := svc.Delete(ctx, "u1", m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetByID(ctx, "u1", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted medication must be hidden, got %v", err)
	}
	if stored := repo.byID[m.ID]; stored.Active {
		t.Fatalf("expected row kept with Active=false")
	}
	if err := svc.Delete(ctx, "u1", m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}

	items, _ := svc.ListByOwner(ctx, "u1")
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
}

func TestListActive_FiltersByWindow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	past := validDraft()
	past.StartDate = "2025-01-01"
	past.EndDate = "2025-01-31"
	_, _ = svc.Create(ctx, "u1", past)

	current, _ := svc.Create(ctx, "u1", validDraft())

	day := civil.Date{Year: 2025, Month: time.March, Day: 5}
	items, err := svc.ListActive(ctx, "u1", day)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != 1 || items[0].ID != current.ID {
		t.Fatalf("expected only current medication, got %+v", items)
	}
}
