package medications

import "context"

// Repository devuelve ErrNotFound cuando el id no existe.
type Repository interface {
	Create(ctx context.Context, m Medication) error
	Update(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	// ListByOwner incluye las borradas lógicamente; el Service filtra.
	ListByOwner(ctx context.Context, ownerUserID string) ([]Medication, error)
	// ListOwners lista usuarios con al menos una medicación activa (lo usa el sweep).
	ListOwners(ctx context.Context) ([]string, error)
}
