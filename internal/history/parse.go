package history

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/windboard/internal/common"
	"github.com/i474232898/windboard/internal/weather"
)

// Column positions in the whitespace-split observation table.
const (
	colDate  = 0
	colTime  = 1
	colTemp  = 2
	colSpeed = 7
	colDir   = 8
	colGust  = 10
	colRain  = 16

	minFields = colRain + 1
)

// Lines carrying these markers are table headers or separator rules.
var skipMarkers = []string{"Date", "-"}

// ParseLine converts one line of the observation table into a record. ok is false
// for blank lines, headers, separators, short rows and rows whose required
// fields do not parse.
//
// The separator check also discards rows containing a negative reading.
func ParseLine(line string, loc *time.Location) (rec weather.ForecastPoint, ok bool) {
	if strings.TrimSpace(line) == "" || common.ContainsAny(line, skipMarkers...) {
		return rec, false
	}

	fields := strings.Fields(line)
	if len(fields) < minFields {
		return rec, false
	}

	ts, ok := parseTimestamp(fields[colDate], fields[colTime], loc)
	if !ok {
		return rec, false
	}

	var nums [4]float64
	for i, col := range []int{colTemp, colSpeed, colGust, colRain} {
		v, err := common.ParseFloat(fields[col])
		if err != nil {
			return rec, false
		}
		nums[i] = v
	}
	rain := nums[3]

	return weather.ForecastPoint{
		Time:        ts.Unix(),
		SpeedKnots:  nums[1], // the station already reports knots
		GustKnots:   nums[2],
		Direction:   weather.CardinalToDegrees(fields[colDir]),
		Temperature: nums[0],
		Rain:        &rain,
	}, true
}

// ParseBody parses every line of a raw feed body, keeping the lines that parse, in order.
func ParseBody(body string, loc *time.Location) []weather.ForecastPoint {
	var records []weather.ForecastPoint
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if rec, ok := ParseLine(sc.Text(), loc); ok {
			records = append(records, rec)
		}
	}
	return records
}

// parseTimestamp combines an M/D/YY date and a 12-hour HH:MMa / HH:MMp time.
// Years are taken as 2000+YY.
func parseTimestamp(dateStr, timeStr string, loc *time.Location) (time.Time, bool) {
	dparts := strings.Split(dateStr, "/")
	if len(dparts) != 3 {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(dparts[0])
	day, err2 := strconv.Atoi(dparts[1])
	year, err3 := strconv.Atoi(dparts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	year += 2000

	clock, meridiem, ok := common.TrimSuffixAny(timeStr, "a", "p")
	if !ok {
		return time.Time{}, false
	}
	hm := strings.Split(clock, ":")
	if len(hm) != 2 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(hm[0])
	minute, err2 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil || hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	switch {
	case meridiem == "p" && hour != 12:
		hour += 12
	case meridiem == "a" && hour == 12:
		hour = 0
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes out-of-range dates such as 2/30; reject them instead.
	if int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
