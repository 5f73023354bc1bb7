package medications

import (
	"time"

	"medication-adherence/internal/platform/civil"
)

// Medication es la definición canónica de un tratamiento del usuario.
type Medication struct {
	ID          string
	OwnerUserID string

	Name   string
	Dosage string // texto libre: "500mg", "2 comprimidos"

	Frequency Frequency
	TimeOfDay []civil.Clock // orden tal cual lo cargó el usuario

	StartDate civil.Date
	EndDate   *civil.Date // nil = sin fin

	Notes string

	// Active=false es el borrado lógico.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoversDate indica si d cae dentro de [StartDate, EndDate].
func (m Medication) CoversDate(d civil.Date) bool {
	if d.Before(m.StartDate) {
		return false
	}
	if m.EndDate != nil && d.After(*m.EndDate) {
		return false
	}
	return true
}

// ActiveOn: no borrada y vigente en d.
func (m Medication) ActiveOn(d civil.Date) bool {
	return m.Active && m.CoversDate(d)
}
