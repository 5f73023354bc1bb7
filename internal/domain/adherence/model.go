package adherence

import (
	"time"

	"medication-adherence/internal/platform/civil"
)

// Event es un registro inmutable sobre una toma. Nunca se edita ni se borra:
// un nuevo Event para la misma toma la reemplaza como estado actual.
type Event struct {
	ID          string
	Seq         int64 // orden asignado por el store; el mayor es el vigente
	OwnerUserID string

	MedicationID string
	ScheduledAt  time.Time

	Status Status
	Source Source

	LoggedAt time.Time
	Note     string
}

// DayStats es el desglose de un día de calendario.
type DayStats struct {
	Taken         int     `json:"taken"`
	Missed        int     `json:"missed"`
	Skipped       int     `json:"skipped"`
	Pending       int     `json:"pending"`
	Total         int     `json:"total"`
	AdherenceRate float64 `json:"adherence_rate"`
}

// Stats se recalcula en cada consulta; no se persiste.
type Stats struct {
	From civil.Date
	To   civil.Date

	Taken         int
	Missed        int
	Skipped       int
	Pending       int
	TotalDoses    int
	AdherenceRate float64

	Daily map[civil.Date]DayStats
}

func doseKey(medicationID string, at time.Time) string {
	return medicationID + "|" + at.UTC().Format(time.RFC3339)
}
