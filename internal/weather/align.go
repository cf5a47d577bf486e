package weather

import (
	"time"
)

// DefaultTolerance is the widest gap allowed between a grid slot and the
// provider point matched to it.
const DefaultTolerance = time.Hour

// Aligner maps each provider's irregular samples onto a fixed hourly grid.
type Aligner struct {
	Location  *time.Location
	Days      int
	Tolerance time.Duration
	// Inclusive hour-of-day window for grid slots.
	StartHour int
	EndHour   int
}

// NewAligner returns an Aligner with the default daylight window (09:00-21:00)
// and a one hour tolerance.
func NewAligner(loc *time.Location, days int) Aligner {
	return Aligner{
		Location:  loc,
		Days:      days,
		Tolerance: DefaultTolerance,
		StartHour: 9,
		EndHour:   21,
	}
}

// Grid returns the unix timestamps of every grid slot from the hour containing
// now through now+Days, restricted to the daylight window.
func (a Aligner) Grid(now time.Time) []int64 {
	local := now.In(a.Location)
	end := local.AddDate(0, 0, a.Days)
	current := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, a.Location)

	var slots []int64
	for !current.After(end) {
		if h := current.Hour(); h >= a.StartHour && h <= a.EndHour {
			slots = append(slots, current.Unix())
		}
		current = current.Add(time.Hour)
	}
	return slots
}

// Nearest returns the point closest in time to ts and its distance in seconds.
// On ties the first point encountered wins. ok is false when points is empty or
// the closest point lies further than tolerance away.
func Nearest(points []ForecastPoint, ts int64, tolerance time.Duration) (best ForecastPoint, diff int64, ok bool) {
	found := false
	for _, p := range points {
		d := p.Time - ts
		if d < 0 {
			d = -d
		}
		if !found || d < diff {
			best, diff, found = p, d, true
		}
	}
	if !found || diff > int64(tolerance/time.Second) {
		return ForecastPoint{}, 0, false
	}
	return best, diff, true
}

// Align builds the slot timeline for the given providers. Providers missing from
// series are treated as having no data.
func (a Aligner) Align(now time.Time, providers []string, series map[string][]ForecastPoint) []TimeSlot {
	grid := a.Grid(now)
	slots := make([]TimeSlot, 0, len(grid))

	for _, ts := range grid {
		slot := TimeSlot{
			Timestamp: ts,
			Time:      time.Unix(ts, 0).In(a.Location),
			Forecasts: make(map[string]SlotForecast),
		}
		for _, name := range providers {
			p, diff, ok := Nearest(series[name], ts, a.Tolerance)
			if !ok {
				continue
			}
			slot.Forecasts[name] = SlotForecast{ForecastPoint: p, Offset: diff}
		}
		slots = append(slots, slot)
	}
	return slots
}

// GroupByDay splits an already sorted slot sequence into local calendar days.
// A new bucket starts whenever the date changes from the previous slot.
func GroupByDay(slots []TimeSlot, loc *time.Location) []DayBucket {
	var days []DayBucket
	for _, slot := range slots {
		date := time.Unix(slot.Timestamp, 0).In(loc).Format("2006-01-02")
		if n := len(days); n == 0 || days[n-1].Date != date {
			days = append(days, DayBucket{Date: date})
		}
		last := &days[len(days)-1]
		last.Slots = append(last.Slots, slot)
	}
	return days
}
