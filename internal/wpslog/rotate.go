package wpslog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// DailyWriter reopens a new file each calendar day, named by pattern
// (a strftime pattern, e.g. "wps-%Y%m%d.log"). It is grounded on the
// teacher's log_init(daily_names bool, path string): when daily_names is
// true the teacher builds a new file name from the current date on each
// write that crosses midnight; DailyWriter does the same but resolves
// the pattern via lestrrat-go/strftime, only on a Write whose day differs
// from the last one, rather than hand-formatting the date.
type DailyWriter struct {
	dir     string
	pattern *strftime.Strftime

	mu       sync.Mutex
	day      string
	file     *os.File
	now      func() time.Time
}

// NewDailyWriter prepares a DailyWriter rooted at dir, creating dir if it
// does not already exist (spec.md's bench captures run unattended for
// days, so the directory must be ready before the first Write).
func NewDailyWriter(dir, pattern string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("wpslog: create log directory: %w", err)
	}
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("wpslog: parse rotation pattern: %w", err)
	}
	return &DailyWriter{dir: dir, pattern: p, now: time.Now}, nil
}

// Write implements io.Writer, rolling to a new file whenever the
// wall-clock day changes since the last Write.
func (d *DailyWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	day := now.Format("2006-01-02")
	if day != d.day {
		if err := d.rollLocked(now, day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *DailyWriter) rollLocked(now time.Time, day string) error {
	name := d.pattern.FormatString(now)
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("wpslog: open rotated log file: %w", err)
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

// Close closes the currently open file, if any.
func (d *DailyWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
