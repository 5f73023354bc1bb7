package medications

import (
	"errors"
	"fmt"
	"strings"

	"medication-adherence/internal/platform/civil"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
)

// ValidationError señala el campo rechazado. errors.Is(err, ErrInvalidInput) == true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Draft son los campos editables tal como llegan del cliente.
type Draft struct {
	Name      string
	Dosage    string
	Frequency string
	TimeOfDay []string
	StartDate string // YYYY-MM-DD
	EndDate   string // vacío = sin fin
	Notes     string
}

// Build es el único punto donde se construye una Medication válida.
// No asigna ID, owner ni timestamps (eso lo hace el Service).
func Build(d Draft) (Medication, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Medication{}, invalid("name", "is required")
	}
	dosage := strings.TrimSpace(d.Dosage)
	if dosage == "" {
		return Medication{}, invalid("dosage", "is required")
	}

	freq := Frequency(strings.ToLower(strings.TrimSpace(d.Frequency)))
	if !freq.Valid() {
		return Medication{}, invalid("frequency", fmt.Sprintf("unknown value %q", d.Frequency))
	}

	slots, err := parseSlots(freq, d.TimeOfDay)
	if err != nil {
		return Medication{}, err
	}

	if strings.TrimSpace(d.StartDate) == "" {
		return Medication{}, invalid("start_date", "is required")
	}
	start, err := civil.ParseDate(d.StartDate)
	if err != nil {
		return Medication{}, invalid("start_date", "must be YYYY-MM-DD")
	}

	var end *civil.Date
	if strings.TrimSpace(d.EndDate) != "" {
		e, err := civil.ParseDate(d.EndDate)
		if err != nil {
			return Medication{}, invalid("end_date", "must be YYYY-MM-DD")
		}
		if e.Before(start) {
			return Medication{}, invalid("end_date", "must not be before start_date")
		}
		end = &e
	}

	return Medication{
		Name:      name,
		Dosage:    dosage,
		Frequency: freq,
		TimeOfDay: slots,
		StartDate: start,
		EndDate:   end,
		Notes:     strings.TrimSpace(d.Notes),
		Active:    true,
	}, nil
}

func parseSlots(freq Frequency, raw []string) ([]civil.Clock, error) {
	out := make([]civil.Clock, 0, len(raw))
	seen := map[civil.Clock]struct{}{}
	for _, s := range raw {
		c, err := civil.ParseClock(s)
		if err != nil {
			return nil, invalid("time_of_day", "entries must be HH:MM")
		}
		if _, dup := seen[c]; dup {
			return nil, invalid("time_of_day", fmt.Sprintf("duplicate slot %s", c))
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	switch n := freq.SlotCount(); {
	case n > 0 && len(out) != n:
		return nil, invalid("time_of_day", fmt.Sprintf("%s requires exactly %d entries", freq, n))
	case n < 0 && len(out) == 0:
		return nil, invalid("time_of_day", fmt.Sprintf("%s requires at least one entry", freq))
	}
	return out, nil
}

// DraftOf es la inversa de Build; la usa Update para re-validar el merge completo.
func DraftOf(m Medication) Draft {
	slots := make([]string, 0, len(m.TimeOfDay))
	for _, c := range m.TimeOfDay {
		slots = append(slots, c.String())
	}
	d := Draft{
		Name:      m.Name,
		Dosage:    m.Dosage,
		Frequency: string(m.Frequency),
		TimeOfDay: slots,
		StartDate: m.StartDate.String(),
		Notes:     m.Notes,
	}
	if m.EndDate != nil {
		d.EndDate = m.EndDate.String()
	}
	return d
}
