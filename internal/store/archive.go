package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/i474232898/windboard/internal/weather"
)

// FileArchive writes every snapshot as line-delimited JSON under
// <root>/YYYY/MM/DD/HH/MM/<provider>.jsonl, using the run time in loc.
type FileArchive struct {
	root string
	loc  *time.Location
}

// NewFileArchive creates an archive rooted at dir.
func NewFileArchive(dir string, loc *time.Location) *FileArchive {
	return &FileArchive{root: dir, loc: loc}
}

// Path returns the file a snapshot of provider taken at runAt is written to.
func (a *FileArchive) Path(runAt time.Time, provider string) string {
	t := runAt.In(a.loc)
	return filepath.Join(a.root,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		fmt.Sprintf("%02d", t.Hour()),
		fmt.Sprintf("%02d", t.Minute()),
		provider+".jsonl",
	)
}

// Save writes the snapshot points, replacing any file from the same minute.
// The file is written under a temporary name and renamed into place, so a
// failed save leaves no partial file behind.
func (a *FileArchive) Save(runAt time.Time, snapshot weather.Snapshot) (err error) {
	path := a.Path(runAt, snapshot.Provider)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+snapshot.Provider+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, p := range snapshot.Points {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode point: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod archive file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename archive file: %w", err)
	}
	return nil
}
