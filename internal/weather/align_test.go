package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdt = time.FixedZone("PDT", -7*3600)

func TestGridDaylightWindow(t *testing.T) {
	a := NewAligner(pdt, 2)
	now := time.Date(2025, 6, 22, 0, 30, 0, 0, pdt)

	grid := a.Grid(now)
	require.Len(t, grid, 26)

	perDay := map[string]int{}
	for _, ts := range grid {
		lt := time.Unix(ts, 0).In(pdt)
		assert.GreaterOrEqual(t, lt.Hour(), 9)
		assert.LessOrEqual(t, lt.Hour(), 21)
		assert.Zero(t, lt.Minute())
		perDay[lt.Format("2006-01-02")]++
	}
	assert.Equal(t, map[string]int{"2025-06-22": 13, "2025-06-23": 13}, perDay)
}

func TestGridStartsAtCurrentHour(t *testing.T) {
	a := NewAligner(pdt, 1)
	now := time.Date(2025, 6, 22, 14, 45, 0, 0, pdt)

	grid := a.Grid(now)
	require.NotEmpty(t, grid)
	assert.Equal(t, time.Date(2025, 6, 22, 14, 0, 0, 0, pdt).Unix(), grid[0])
	// 14..21 today, 9..14 tomorrow (14:00 <= now+1d).
	assert.Len(t, grid, 8+6)
}

func TestGridUsesConfiguredZone(t *testing.T) {
	now := time.Date(2025, 6, 22, 12, 0, 0, 0, time.UTC)

	utcGrid := NewAligner(time.UTC, 1).Grid(now)
	pdtGrid := NewAligner(pdt, 1).Grid(now)
	assert.NotEqual(t, utcGrid, pdtGrid)

	for _, ts := range pdtGrid {
		h := time.Unix(ts, 0).In(pdt).Hour()
		assert.True(t, h >= 9 && h <= 21)
	}
}

func TestNearestToleranceBoundary(t *testing.T) {
	const ts = 100000

	_, diff, ok := Nearest([]ForecastPoint{{Time: ts + 3600}}, ts, DefaultTolerance)
	assert.True(t, ok)
	assert.Equal(t, int64(3600), diff)

	_, _, ok = Nearest([]ForecastPoint{{Time: ts - 3600}}, ts, DefaultTolerance)
	assert.True(t, ok)

	_, _, ok = Nearest([]ForecastPoint{{Time: ts + 3601}}, ts, DefaultTolerance)
	assert.False(t, ok)

	_, _, ok = Nearest(nil, ts, DefaultTolerance)
	assert.False(t, ok)
}

func TestNearestUnsortedAndTies(t *testing.T) {
	points := []ForecastPoint{
		{Time: 5000, Temperature: 1},
		{Time: 1100, Temperature: 2},
		{Time: 900, Temperature: 3}, // same distance as 1100, found later
		{Time: 3000, Temperature: 4},
	}

	best, diff, ok := Nearest(points, 1000, DefaultTolerance)
	require.True(t, ok)
	assert.Equal(t, int64(100), diff)
	assert.Equal(t, 2.0, best.Temperature)
}

func TestAlignEndToEnd(t *testing.T) {
	a := NewAligner(pdt, 1)
	now := time.Date(2025, 6, 22, 10, 20, 0, 0, pdt)
	slotTS := time.Date(2025, 6, 22, 12, 0, 0, 0, pdt).Unix()

	point := ForecastPoint{Time: slotTS, SpeedKnots: MetersPerSecondToKnots(5), GustKnots: MetersPerSecondToKnots(7), Direction: 90, Temperature: 18}
	series := map[string][]ForecastPoint{"windy_ecmwf": {point}}

	slots := a.Align(now, []string{"windy_ecmwf", "windfinder"}, series)
	require.NotEmpty(t, slots)

	var matched int
	for _, slot := range slots {
		assert.NotContains(t, slot.Forecasts, "windfinder")

		got, ok := slot.Forecasts["windy_ecmwf"]
		d := slot.Timestamp - slotTS
		if d < 0 {
			d = -d
		}
		if d > 3600 {
			assert.False(t, ok, "slot %d should be unmatched", slot.Timestamp)
			continue
		}
		require.True(t, ok)
		matched++
		if slot.Timestamp == slotTS {
			assert.Equal(t, int64(0), got.Offset)
			assert.Equal(t, point, got.ForecastPoint)
		}
	}
	// 11:00, 12:00 and 13:00 are within an hour.
	assert.Equal(t, 3, matched)
}

func TestAlignDoesNotMutateSeries(t *testing.T) {
	a := NewAligner(pdt, 1)
	now := time.Date(2025, 6, 22, 9, 0, 0, 0, pdt)
	series := map[string][]ForecastPoint{"p": {{Time: now.Unix(), SpeedKnots: 10}}}

	slots := a.Align(now, []string{"p"}, series)
	require.NotEmpty(t, slots)

	fc := slots[0].Forecasts["p"]
	fc.SpeedKnots = 99
	slots[0].Forecasts["p"] = fc
	assert.Equal(t, 10.0, series["p"][0].SpeedKnots)
}

func TestGroupByDay(t *testing.T) {
	a := NewAligner(pdt, 3)
	now := time.Date(2025, 6, 22, 20, 0, 0, 0, pdt)

	slots := a.Align(now, nil, nil)
	days := GroupByDay(slots, pdt)

	require.Len(t, days, 4)
	assert.Equal(t, "2025-06-22", days[0].Date)
	assert.Len(t, days[0].Slots, 2)
	assert.Len(t, days[1].Slots, 13)
	assert.Len(t, days[2].Slots, 13)
	assert.Equal(t, "2025-06-25", days[3].Date)
	assert.Len(t, days[3].Slots, 12) // 9..20, ends at now+3d

	var total int
	prev := int64(0)
	for _, d := range days {
		for _, s := range d.Slots {
			assert.Greater(t, s.Timestamp, prev)
			prev = s.Timestamp
			total++
		}
	}
	assert.Equal(t, len(slots), total)
	assert.Empty(t, GroupByDay(nil, pdt))
}
