package slot

import "time"

// Bookable hours run 9:00 through 17:00 inclusive, for today and
// tomorrow relative to the reference time.
const (
	FirstHour  = 9
	LastHour   = 17
	WindowDays = 2
)

// Times returns the full slot calendar for the rolling window anchored
// at ref: one time per integer hour in [FirstHour, LastHour] for each
// day offset. Output is deterministic for a given ref and sorted
// ascending; 18 entries in total.
func Times(ref time.Time) []time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	times := make([]time.Time, 0, WindowDays*(LastHour-FirstHour+1))
	for offset := 0; offset < WindowDays; offset++ {
		for hour := FirstHour; hour <= LastHour; hour++ {
			times = append(times, day.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour))
		}
	}
	return times
}
