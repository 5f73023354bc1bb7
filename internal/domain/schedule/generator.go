// Package schedule expande la regla de recurrencia de una medicación en
// tomas concretas (DoseInstance). Todo es función pura sobre valores: no
// hay estado ni caché, así que regenerar un rango siempre da lo mismo.
package schedule

import (
	"sort"
	"time"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/platform/civil"
)

// DoseInstance es una toma programada. Su identidad es (MedicationID, Date, Slot).
type DoseInstance struct {
	MedicationID string
	Date         civil.Date
	Slot         civil.Clock
	ScheduledAt  time.Time
}

// Key identifica la toma de forma estable entre regeneraciones.
func (d DoseInstance) Key() string {
	return d.MedicationID + "|" + d.Date.String() + "T" + d.Slot.String()
}

// Generate devuelve las tomas de m entre from y to (ambos inclusive),
// ordenadas por ScheduledAt. El rango se recorta a [StartDate, EndDate].
func Generate(m medications.Medication, from, to civil.Date, loc *time.Location) []DoseInstance {
	out := make([]DoseInstance, 0)
	if m.Frequency == medications.FrequencyAsNeeded || len(m.TimeOfDay) == 0 {
		return out
	}

	lo := civil.MaxDate(from, m.StartDate)
	hi := to
	if m.EndDate != nil {
		hi = civil.MinDate(hi, *m.EndDate)
	}
	if hi.Before(lo) {
		return out
	}

	slots := sortedSlots(m.TimeOfDay)

	if m.Frequency == medications.FrequencyWeekly {
		// Ancla en StartDate: primer día >= lo alineado a múltiplos de 7.
		offset := lo.DaysSince(m.StartDate)
		if rem := offset % 7; rem != 0 {
			offset += 7 - rem
		}
		for d := m.StartDate.AddDays(offset); !d.After(hi); d = d.AddDays(7) {
			out = append(out, instance(m.ID, d, slots[0], loc))
		}
		return out
	}

	for d := lo; !d.After(hi); d = d.AddDays(1) {
		for _, c := range slots {
			out = append(out, instance(m.ID, d, c, loc))
		}
	}
	return out
}

// Between devuelve las tomas con ScheduledAt en [start, end).
func Between(m medications.Medication, start, end time.Time, loc *time.Location) []DoseInstance {
	if !start.Before(end) {
		return []DoseInstance{}
	}
	from := civil.DateOf(start.In(loc))
	to := civil.DateOf(end.In(loc))

	all := Generate(m, from, to, loc)
	out := make([]DoseInstance, 0, len(all))
	for _, d := range all {
		if d.ScheduledAt.Before(start) || !d.ScheduledAt.Before(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Contains busca la toma de m programada exactamente en at.
func Contains(m medications.Medication, at time.Time, loc *time.Location) (DoseInstance, bool) {
	day := civil.DateOf(at.In(loc))
	for _, d := range Generate(m, day, day, loc) {
		if d.ScheduledAt.Equal(at) {
			return d, true
		}
	}
	return DoseInstance{}, false
}

// SortByTime ordena por ScheduledAt y desempata por Key para que el orden
// sea estable al mezclar tomas de varias medicaciones.
func SortByTime(items []DoseInstance) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ScheduledAt.Equal(items[j].ScheduledAt) {
			return items[i].ScheduledAt.Before(items[j].ScheduledAt)
		}
		return items[i].Key() < items[j].Key()
	})
}

func instance(medID string, d civil.Date, c civil.Clock, loc *time.Location) DoseInstance {
	return DoseInstance{
		MedicationID: medID,
		Date:         d,
		Slot:         c,
		ScheduledAt:  d.At(c, loc),
	}
}

func sortedSlots(in []civil.Clock) []civil.Clock {
	out := make([]civil.Clock, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
