// Package logging defines the leveled logger used by the pipeline and the
// CLI. Scanning and model arithmetic never log.
package logging

// Logger is the leveled logging contract. Args are alternating key/value
// pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithFields(fields map[string]any) Logger
}

// NoOp returns a logger that discards everything.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Debug(string, ...any)               {}
func (noop) Info(string, ...any)                {}
func (noop) Warn(string, ...any)                {}
func (noop) Error(string, ...any)               {}
func (n noop) WithFields(map[string]any) Logger { return n }
