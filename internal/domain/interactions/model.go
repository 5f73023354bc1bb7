package interactions

import (
	"errors"
	"fmt"
	"strings"
)

// Severity de una interacción.
// @Enum minor, moderate, severe
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

var ErrInvalidInput = errors.New("invalid input")

func ParseSeverity(s string) (Severity, error) {
	switch sv := Severity(strings.ToLower(strings.TrimSpace(s))); sv {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return sv, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, s)
	}
}

// Rank: mayor = más grave.
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// Rule es un par no ordenado de drogas. Se guarda normalizado:
// minúsculas y DrugA < DrugB, así {A,B} y {B,A} son la misma regla.
type Rule struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

func NewRule(a, b string, sev Severity, description string) (Rule, error) {
	a, b = Pair(a, b)
	if a == "" || b == "" {
		return Rule{}, fmt.Errorf("%w: rule needs two drug names", ErrInvalidInput)
	}
	if a == b {
		return Rule{}, fmt.Errorf("%w: rule pairs %q with itself", ErrInvalidInput, a)
	}
	if sev.Rank() == 0 {
		return Rule{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, sev)
	}
	return Rule{DrugA: a, DrugB: b, Severity: sev, Description: strings.TrimSpace(description)}, nil
}

// Key identifica el par sin importar el orden.
func (r Rule) Key() string { return PairKey(r.DrugA, r.DrugB) }

// Interaction es un resultado de Check. Drug1 < Drug2, en minúsculas.
type Interaction struct {
	Drug1       string   `json:"drug1"`
	Drug2       string   `json:"drug2"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// NormalizeName: minúsculas y espacios colapsados.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Pair normaliza y ordena dos nombres.
func Pair(a, b string) (string, string) {
	a, b = NormalizeName(a), NormalizeName(b)
	if b < a {
		a, b = b, a
	}
	return a, b
}

func PairKey(a, b string) string {
	a, b = Pair(a, b)
	return a + "|" + b
}
