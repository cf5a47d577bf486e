package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdt = time.FixedZone("PDT", -7*3600)

// feedLine renders one row of the station table; columns this package does not
// read are filled with plausible values.
func feedLine(date, clock string, temp, speed float64, dir string, gust, rain float64) string {
	return fmt.Sprintf("  %s  %s  %5.1f  %5.1f  %5.1f  84  11.6  %5.1f  %s  1.50  %5.1f  %s  14.2  14.2  14.6  1016.3  %4.2f  0.00",
		date, clock, temp, temp+0.1, temp-0.1, speed, dir, gust, dir, rain)
}

const feedHeader = `                  Temp     Hi    Low   Out    Dew  Wind  Wind   Wind    Hi    Hi   Wind   Heat    THW                 Rain
  Date    Time     Out   Temp   Temp   Hum    Pt. Speed   Dir    Run Speed   Dir  Chill  Index  Index   Bar    Rain  Rate
---------------------------------------------------------------------------------------------------------------------------`

func TestParseLine(t *testing.T) {
	rec, ok := ParseLine(feedLine("6/22/25", "2:30p", 18.4, 6.0, "WSW", 9.0, 0.2), pdt)
	require.True(t, ok)

	assert.Equal(t, time.Date(2025, 6, 22, 14, 30, 0, 0, pdt).Unix(), rec.Time)
	assert.Equal(t, 18.4, rec.Temperature)
	assert.Equal(t, 6.0, rec.SpeedKnots)
	assert.Equal(t, 9.0, rec.GustKnots)
	assert.Equal(t, 247.5, rec.Direction)
	require.NotNil(t, rec.Rain)
	assert.Equal(t, 0.2, *rec.Rain)
}

func TestParseLineTwelveHourClock(t *testing.T) {
	cases := map[string]int{
		"12:00a": 0,
		"12:30a": 0,
		"1:00a":  1,
		"11:59a": 11,
		"12:00p": 12,
		"12:45p": 12,
		"1:15p":  13,
		"11:00p": 23,
	}
	for clock, hour := range cases {
		rec, ok := ParseLine(feedLine("1/5/25", clock, 5, 3, "N", 4, 0), pdt)
		require.True(t, ok, clock)
		got := time.Unix(rec.Time, 0).In(pdt)
		assert.Equal(t, hour, got.Hour(), clock)
		assert.Equal(t, 2025, got.Year())
	}
}

func TestParseLineUnknownDirection(t *testing.T) {
	rec, ok := ParseLine(feedLine("6/22/25", "3:00p", 18, 0, "---", 0, 0), pdt)
	// "---" is also the separator marker, so the row is discarded.
	assert.False(t, ok)

	rec, ok = ParseLine(feedLine("6/22/25", "3:00p", 18, 1, "XYZ", 2, 0), pdt)
	require.True(t, ok)
	assert.Equal(t, -1.0, rec.Direction)
}

func TestParseLineDiscards(t *testing.T) {
	good := feedLine("6/22/25", "2:30p", 18.4, 6.0, "WSW", 9.0, 0.2)
	fields := strings.Fields(good)

	lines := map[string]string{
		"blank":        "   ",
		"header":       "  Date    Time     Out   Temp",
		"separator":    "-------------",
		"short":        strings.Join(fields[:10], " "),
		"bad temp":     strings.Replace(good, "18.4", "x18", 1),
		"bad date":     strings.Replace(good, "6/22/25", "6/22", 1),
		"no meridiem":  strings.Replace(good, "2:30p", "14:30", 1),
		"bad hour":     strings.Replace(good, "2:30p", "13:30p", 1),
		"bad minute":   strings.Replace(good, "2:30p", "2:75p", 1),
		"impossible":   strings.Replace(good, "6/22/25", "2/30/25", 1),
		"bad rain":     strings.Join(append(append([]string{}, fields[:16]...), "n/a"), " "),
		"negative val": strings.Replace(good, "18.4", "-1.2", 1),
		"nan temp":     strings.Replace(good, "18.4", "NaN", 1),
		"inf gust":     strings.Replace(good, "  9.0", "  +Inf", 1),
		"infinity":     strings.Join(append(append([]string{}, fields[:16]...), "infinity"), " "),
	}
	for name, line := range lines {
		_, ok := ParseLine(line, pdt)
		assert.False(t, ok, name)
	}
}

func TestParseBody(t *testing.T) {
	body := strings.Join([]string{
		feedHeader,
		feedLine("6/22/25", "12:00p", 17, 4, "W", 6, 0),
		"garbage row",
		feedLine("6/22/25", "12:30p", 17.5, 5, "WNW", 7, 0),
		"",
	}, "\n")

	records := ParseBody(body, pdt)
	require.Len(t, records, 2)
	assert.Less(t, records[0].Time, records[1].Time)
}

func TestLastTimestampMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()

	in := NewIngestor(filepath.Join(dir, "missing.jsonl"), pdt)
	mark, err := in.LastTimestamp()
	require.NoError(t, err)
	assert.Equal(t, BeforeAllTime, mark)

	empty := filepath.Join(dir, "empty.jsonl")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	mark, err = NewIngestor(empty, pdt).LastTimestamp()
	require.NoError(t, err)
	assert.Equal(t, BeforeAllTime, mark)
}

func TestLastTimestampReadsOnlyTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")

	// A corrupt first line proves the head of the file is never decoded.
	var b strings.Builder
	b.WriteString("not json at all\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, `{"time":%d,"speed_knots":1,"gust_knots":2,"direction":0,"temperature":10,"rain":0}`+"\n", 1000+i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()+"\n"), 0o644))

	mark, err := NewIngestor(path, pdt).LastTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1499), mark)
}

func TestLastTimestampCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"time":1}`+"\n{broken\n"), 0o644))

	_, err := NewIngestor(path, pdt).LastTimestamp()
	assert.Error(t, err)
}

func TestIngestIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsca_weather.jsonl")
	in := NewIngestor(path, pdt)

	body := strings.Join([]string{
		feedHeader,
		feedLine("6/22/25", "12:00p", 17, 4, "W", 6, 0),
		feedLine("6/22/25", "12:30p", 17.5, 5, "WNW", 7, 0),
		feedLine("6/22/25", "1:00p", 18, 6, "NW", 8, 0.2),
	}, "\n")

	n, err := in.Ingest(body)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	n, err = in.Ingest(body)
	require.NoError(t, err)
	assert.Zero(t, n)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIngestSkipsNonFiniteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	in := NewIngestor(path, pdt)

	bad := strings.Replace(feedLine("6/22/25", "12:30p", 17.5, 5, "WNW", 7, 0), "17.5", "NaN", 1)
	body := strings.Join([]string{
		feedLine("6/22/25", "12:00p", 17, 4, "W", 6, 0),
		bad,
	}, "\n")

	n, err := in.Ingest(body)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The bad row stays in the feed; newer rows still get through.
	n, err = in.Ingest(body + "\n" + feedLine("6/22/25", "1:00p", 18, 6, "NW", 8, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mark, err := in.LastTimestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 22, 13, 0, 0, 0, pdt).Unix(), mark)
}

func TestIngestMonotonicFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	last := time.Date(2025, 6, 22, 12, 0, 0, 0, pdt)
	T := last.Unix()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"time":%d,"speed_knots":1,"gust_knots":2,"direction":0,"temperature":10,"rain":0}`+"\n", T)), 0o644))

	// The feed has minute resolution, so offsets are whole minutes here.
	clock := func(d time.Duration) string {
		return last.Add(d).Format("3:04") + strings.TrimSuffix(strings.ToLower(last.Add(d).Format("PM")), "m")
	}
	body := strings.Join([]string{
		feedLine("6/22/25", clock(-2*time.Minute), 16, 3, "N", 4, 0),
		feedLine("6/22/25", clock(0), 16.5, 3, "N", 4, 0),
		feedLine("6/22/25", clock(time.Minute), 17, 4, "NE", 5, 0),
		feedLine("6/22/25", clock(4*time.Minute), 17.5, 5, "E", 6, 0),
	}, "\n")

	in := NewIngestor(path, pdt)
	n, err := in.Ingest(body)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := in.Records(time.Unix(0, 0), last.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, T, records[0].Time)
	assert.Equal(t, T+60, records[1].Time)
	assert.Equal(t, T+240, records[2].Time)

	mark, err := in.LastTimestamp()
	require.NoError(t, err)
	assert.Equal(t, T+240, mark)
}

func TestIngestDropsOutOfOrderBackfill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	in := NewIngestor(path, pdt)

	_, err := in.Ingest(feedLine("6/22/25", "1:00p", 18, 6, "NW", 8, 0))
	require.NoError(t, err)

	// Never recorded, but older than the last line.
	n, err := in.Ingest(feedLine("6/22/25", "12:30p", 17, 5, "NW", 7, 0))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "log.jsonl")
	_, err := NewIngestor(path, pdt).Ingest(feedLine("6/22/25", "1:00p", 18, 6, "NW", 8, 0))
	assert.Error(t, err)
}

type stubSource struct {
	body string
	err  error
}

func (s stubSource) FetchText(context.Context) (string, error) { return s.body, s.err }

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	in := NewIngestor(path, pdt)

	n, err := in.Update(context.Background(), stubSource{body: feedLine("6/22/25", "1:00p", 18, 6, "NW", 8, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = in.Update(context.Background(), stubSource{err: errors.New("503")})
	assert.Error(t, err)
}

func TestRecordsMissingLog(t *testing.T) {
	records, err := NewIngestor(filepath.Join(t.TempDir(), "none.jsonl"), pdt).Records(time.Unix(0, 0), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}
