package medications

// Frequency es la regla de recurrencia declarada por el usuario.
// @Enum daily, twice_daily, three_times, weekly, as_needed
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyTwiceDaily Frequency = "twice_daily"
	FrequencyThreeTimes Frequency = "three_times"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyAsNeeded   Frequency = "as_needed"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwiceDaily, FrequencyThreeTimes, FrequencyWeekly, FrequencyAsNeeded:
		return true
	}
	return false
}

// SlotCount es la cantidad exacta de horarios que exige la frecuencia.
// -1 = al menos uno (weekly), 0 = no se usan (as_needed).
func (f Frequency) SlotCount() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyTwiceDaily:
		return 2
	case FrequencyThreeTimes:
		return 3
	case FrequencyWeekly:
		return -1
	default:
		return 0
	}
}
