package interactions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/platform/civil"
	"medication-adherence/internal/platform/logger"
)

// MaxNames acota la cantidad de nombres por consulta (n*(n-1)/2 búsquedas).
const MaxNames = 50

// ActiveLister es lo que CheckActive necesita del registro.
type ActiveLister interface {
	ListActive(ctx context.Context, ownerUserID string, day civil.Date) ([]medications.Medication, error)
}

type Checker struct {
	sources []RuleSource
	meds    ActiveLister
	loc     *time.Location
	log     logger.Logger
	now     func() time.Time
}

// NewChecker consulta las fuentes en orden; la primera que conoce el par gana.
func NewChecker(meds ActiveLister, loc *time.Location, log logger.Logger, sources ...RuleSource) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Checker{
		sources: sources,
		meds:    meds,
		loc:     loc,
		log:     log,
		now:     time.Now,
	}
}

// Check evalúa todos los pares distintos de names. Menos de dos nombres
// distintos (sin importar mayúsculas) devuelve una lista vacía.
func (c *Checker) Check(ctx context.Context, names []string) ([]Interaction, error) {
	distinct := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		distinct = append(distinct, n)
	}

	out := make([]Interaction, 0)
	if len(distinct) < 2 {
		return out, nil
	}
	if len(distinct) > MaxNames {
		return nil, fmt.Errorf("%w: at most %d medications per check", ErrInvalidInput, MaxNames)
	}
	sort.Strings(distinct)

	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rule, ok := c.lookup(ctx, distinct[i], distinct[j])
			if !ok {
				continue
			}
			out = append(out, Interaction{
				Drug1:       distinct[i],
				Drug2:       distinct[j],
				Severity:    rule.Severity,
				Description: rule.Description,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		if out[i].Drug1 != out[j].Drug1 {
			return out[i].Drug1 < out[j].Drug1
		}
		return out[i].Drug2 < out[j].Drug2
	})
	return out, nil
}

// CheckActive revisa las medicaciones vigentes hoy del usuario.
// Devuelve también los nombres evaluados.
func (c *Checker) CheckActive(ctx context.Context, ownerUserID string) ([]Interaction, []string, error) {
	meds, err := c.meds.ListActive(ctx, ownerUserID, civil.Today(c.now(), c.loc))
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		names = append(names, m.Name)
	}
	found, err := c.Check(ctx, names)
	if err != nil {
		return nil, nil, err
	}
	return found, names, nil
}

func (c *Checker) lookup(ctx context.Context, a, b string) (Rule, bool) {
	for i, src := range c.sources {
		rule, ok, err := src.Find(ctx, a, b)
		if err != nil {
			// una fuente caída no invalida el chequeo: se sigue con la próxima
			c.log.Warn("interaction source failed", map[string]any{
				"source": i,
				"pair":   PairKey(a, b),
				"error":  err,
			})
			continue
		}
		if ok {
			return rule, true
		}
	}
	return Rule{}, false
}
