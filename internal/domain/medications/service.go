package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medication-adherence/internal/platform/civil"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput = Draft

// PatchEndDate distingue "no enviado" de "null" (limpiar end_date).
type PatchEndDate struct {
	Present bool
	Value   *string
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name      *string
	Dosage    *string
	Frequency *string
	TimeOfDay *[]string
	StartDate *string
	EndDate   PatchEndDate
	Notes     *string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Medication, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Medication{}, invalid("owner", "is required")
	}

	m, err := Build(in)
	if err != nil {
		return Medication{}, err
	}

	now := s.now()
	m.ID = uuid.NewString()
	m.OwnerUserID = ownerUserID
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, fmt.Errorf("create medication: %w", err)
	}
	return m, nil
}

// GetByID solo devuelve medicaciones del owner; de otro usuario es ErrNotFound.
func (s *Service) GetByID(ctx context.Context, ownerUserID, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}
	if m.OwnerUserID != ownerUserID || !m.Active {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

// ListByOwner devuelve las no borradas, en orden de creación.
func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error) {
	all, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	out := make([]Medication, 0, len(all))
	for _, m := range all {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListActive: no borradas y vigentes en day.
func (s *Service) ListActive(ctx context.Context, ownerUserID string, day civil.Date) ([]Medication, error) {
	items, err := s.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	out := make([]Medication, 0, len(items))
	for _, m := range items {
		if m.ActiveOn(day) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) ListOwners(ctx context.Context) ([]string, error) {
	return s.repo.ListOwners(ctx)
}

// Update aplica el patch sobre la versión actual y re-valida todo con Build.
func (s *Service) Update(ctx context.Context, ownerUserID, id string, in UpdateInput) (Medication, error) {
	current, err := s.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return Medication{}, err
	}

	d := DraftOf(current)
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Dosage != nil {
		d.Dosage = *in.Dosage
	}
	if in.Frequency != nil {
		d.Frequency = *in.Frequency
	}
	if in.TimeOfDay != nil {
		d.TimeOfDay = *in.TimeOfDay
	}
	if in.StartDate != nil {
		d.StartDate = *in.StartDate
	}
	if in.EndDate.Present {
		d.EndDate = ""
		if in.EndDate.Value != nil {
			d.EndDate = *in.EndDate.Value
		}
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}

	next, err := Build(d)
	if err != nil {
		return Medication{}, err
	}
	next.ID = current.ID
	next.OwnerUserID = current.OwnerUserID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Medication{}, ErrNotFound
		}
		return Medication{}, fmt.Errorf("update medication: %w", err)
	}
	return next, nil
}

// Delete es borrado lógico: el historial de adherencia queda intacto.
func (s *Service) Delete(ctx context.Context, ownerUserID, id string) error {
	m, err := s.GetByID(ctx, ownerUserID, id)
	if err != nil {
		return err
	}
	m.Active = false
	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}
