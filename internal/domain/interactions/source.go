package interactions

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// RuleSource busca la regla de un par. a y b llegan normalizados (a < b).
// Un par sin regla no es error: ok=false.
type RuleSource interface {
	Find(ctx context.Context, a, b string) (Rule, bool, error)
}

//go:embed rules.json
var defaultRulesJSON []byte

// StaticSource es una tabla en memoria, de solo lectura después de construirse.
type StaticSource struct {
	byPair map[string]Rule
}

func NewStaticSource(rules []Rule) *StaticSource {
	s := &StaticSource{byPair: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		s.byPair[r.Key()] = r
	}
	return s
}

func (s *StaticSource) Find(ctx context.Context, a, b string) (Rule, bool, error) {
	r, ok := s.byPair[PairKey(a, b)]
	return r, ok, nil
}

// Rules devuelve la tabla ordenada por par (útil para seedear otro store).
func (s *StaticSource) Rules() []Rule {
	out := make([]Rule, 0, len(s.byPair))
	for _, r := range s.byPair {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (s *StaticSource) Len() int { return len(s.byPair) }

type ruleFile struct {
	DrugA       string `json:"drug_a"`
	DrugB       string `json:"drug_b"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// LoadRules lee un array JSON de reglas. Un par repetido es error.
func LoadRules(r io.Reader) ([]Rule, error) {
	var raw []ruleFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	out := make([]Rule, 0, len(raw))
	seen := map[string]int{}
	for i, rf := range raw {
		sev, err := ParseSeverity(rf.Severity)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rule, err := NewRule(rf.DrugA, rf.DrugB, sev, rf.Description)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if prev, dup := seen[rule.Key()]; dup {
			return nil, fmt.Errorf("%w: rule %d repeats pair %s (first at %d)", ErrInvalidInput, i, rule.Key(), prev)
		}
		seen[rule.Key()] = i
		out = append(out, rule)
	}
	return out, nil
}

// LoadRulesFile carga reglas desde path; vacío = tabla embebida.
func LoadRulesFile(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

func DefaultRules() ([]Rule, error) {
	return LoadRules(bytes.NewReader(defaultRulesJSON))
}
