// Package wpslog is the stack's structured logger: a thin wrapper over
// charmbracelet/log tagged per Node (role + address), used by the cmd/
// binaries; the wps package itself does not log. The teacher reaches the
// same goal through log.go's g_daily_names global plus dw_printf/
// text_color_set call sites scattered through every source file; this
// package centralizes that into one constructor per Node instead.
package wpslog

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is a role/address-tagged charmbracelet/log.Logger. The zero
// value is not usable; construct with New.
type Logger struct {
	*log.Logger
}

// New builds a Logger writing to the file w (os.Stderr in the demo
// binaries) at the given role/address
// context, matching the teacher's per-channel-prefixed dw_printf output
// but as structured key/value fields instead of ad hoc format strings.
func New(w *os.File, role string, address uint16) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	l = l.With("role", role, "addr", address)
	return &Logger{Logger: l}
}

// SetLevel adjusts the minimum level this Logger emits; cmd/ binaries
// wire this to a -v pflag the way the teacher's "-d h" option raises
// hamlib's verbosity.
func (l *Logger) SetLevel(level log.Level) { l.Logger.SetLevel(level) }
