package adherence

import (
	"context"
	"time"
)

type Repository interface {
	// Append guarda el evento y devuelve la copia con Seq asignado.
	Append(ctx context.Context, e Event) (Event, error)

	// AppendIfAbsent solo inserta si no hay ningún evento para la toma
	// (MedicationID, ScheduledAt). Debe ser atómico frente a Append concurrente.
	AppendIfAbsent(ctx context.Context, e Event) (Event, bool, error)

	// History devuelve los eventos de una toma en orden de Seq ascendente.
	History(ctx context.Context, medicationID string, scheduledAt time.Time) ([]Event, error)

	// ListInRange devuelve eventos con ScheduledAt en [from, to) para esas
	// medicaciones, en orden de Seq ascendente.
	ListInRange(ctx context.Context, medicationIDs []string, from, to time.Time) ([]Event, error)
}
