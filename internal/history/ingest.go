// Package history grows an append-only log of real station observations from a
// periodically re-published text table.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/i474232898/windboard/internal/log"
	"github.com/i474232898/windboard/internal/metrics"
	"github.com/i474232898/windboard/internal/weather"
)

// BeforeAllTime is the low-water mark of a log that does not exist yet.
const BeforeAllTime int64 = math.MinInt64

const tailChunk = 4096

// Source supplies the raw observation table.
type Source interface {
	FetchText(ctx context.Context) (string, error)
}

// Ingestor appends newly observed records to a line-delimited JSON log.
//
// The low-water mark is the time of the log's last line, so a record older than
// that is dropped even if it was never recorded. Calls on one Ingestor are
// serialized; separate ingestors must not share a log.
type Ingestor struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// NewIngestor creates an ingestor for the log at path. Feed timestamps are
// interpreted in loc.
func NewIngestor(path string, loc *time.Location) *Ingestor {
	return &Ingestor{path: path, loc: loc}
}

// Path returns the log file location.
func (in *Ingestor) Path() string {
	return in.path
}

// LastTimestamp returns the time of the last record in the log, reading only the
// tail of the file. A missing or empty log yields BeforeAllTime.
func (in *Ingestor) LastTimestamp() (int64, error) {
	f, err := os.Open(in.path)
	if errors.Is(err, os.ErrNotExist) {
		return BeforeAllTime, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	line, err := lastLine(f)
	if err != nil {
		return 0, fmt.Errorf("read history log: %w", err)
	}
	if len(line) == 0 {
		return BeforeAllTime, nil
	}

	var last struct {
		Time int64 `json:"time"`
	}
	if err := json.Unmarshal(line, &last); err != nil {
		return 0, fmt.Errorf("decode last history record: %w", err)
	}
	return last.Time, nil
}

// lastLine reads backwards from the end of f until it has one complete,
// non-empty line.
func lastLine(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var buf []byte
	end := info.Size()
	for end > 0 {
		start := end - tailChunk
		if start < 0 {
			start = 0
		}
		chunk := make([]byte, end-start)
		if _, err := f.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = append(chunk, buf...)

		trimmed := bytes.TrimRight(buf, "\r\n")
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			return bytes.TrimSpace(trimmed[i+1:]), nil
		}
		end = start
	}
	return bytes.TrimSpace(buf), nil
}

// Ingest parses body and appends every record newer than the log's last entry,
// in feed order. It returns the number of records appended. The batch is
// written with a single append; existing content is never rewritten.
func (in *Ingestor) Ingest(body string) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	mark, err := in.LastTimestamp()
	if err != nil {
		return 0, err
	}

	var fresh []weather.ForecastPoint
	for _, rec := range ParseBody(body, in.loc) {
		if rec.Time > mark {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	var batch bytes.Buffer
	enc := json.NewEncoder(&batch)
	for _, rec := range fresh {
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("encode history record: %w", err)
		}
	}

	f, err := os.OpenFile(in.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open history log for append: %w", err)
	}
	if _, err := f.Write(batch.Bytes()); err != nil {
		f.Close()
		return 0, fmt.Errorf("append history log: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close history log: %w", err)
	}
	return len(fresh), nil
}

// Update fetches the feed from src and ingests it.
func (in *Ingestor) Update(ctx context.Context, src Source) (int, error) {
	body, err := src.FetchText(ctx)
	if err != nil {
		metrics.HistoryRuns.WithLabelValues("fetch_error").Inc()
		return 0, fmt.Errorf("fetch observation feed: %w", err)
	}

	n, err := in.Ingest(body)
	if err != nil {
		metrics.HistoryRuns.WithLabelValues("write_error").Inc()
		return 0, err
	}

	metrics.HistoryRuns.WithLabelValues("ok").Inc()
	metrics.HistoryAppended.Add(float64(n))
	if n > 0 {
		log.Infof("added %d new records to %s", n, in.path)
	}
	return n, nil
}

// Records returns the logged records whose time falls within [from, to].
func (in *Ingestor) Records(from, to time.Time) ([]weather.ForecastPoint, error) {
	f, err := os.Open(in.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	lo, hi := from.Unix(), to.Unix()
	var out []weather.ForecastPoint
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec weather.ForecastPoint
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		if rec.Time >= lo && rec.Time <= hi {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan history log: %w", err)
	}
	return out, nil
}
