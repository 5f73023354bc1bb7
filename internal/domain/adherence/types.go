package adherence

import (
	"errors"
	"fmt"
	"strings"
)

// Status de una toma. pending es implícito: nunca se guarda por pedido del usuario.
// @Enum pending, taken, missed, skipped
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusSkipped Status = "skipped"
)

// Source distingue un registro manual de uno materializado por el sweep.
type Source string

const (
	SourceUser  Source = "user"
	SourceSweep Source = "sweep"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidStatus        = fmt.Errorf("%w: status must be taken, skipped or missed", ErrInvalidInput)
	ErrInvalidRange         = fmt.Errorf("%w: invalid date range", ErrInvalidInput)
	ErrInvalidDoseReference = errors.New("invalid dose reference")
)

// ParseLoggable acepta solo los estados que un usuario puede registrar.
func ParseLoggable(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTaken, StatusSkipped, StatusMissed:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}
