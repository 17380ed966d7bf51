// Package diag is the compiler's shared logging and diagnostics
// package: plain fmt-to-stdout, gated by an ordered level rather than
// a single "verbose" bool so -v can be given a count (-v/-vv/-vvv)
// instead of just being on or off.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Level is an ordered verbosity level, most to least chatty when
// listed but increasing in severity as a value.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Trace:
		return "trace"
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Logger prints messages at or above its configured level to Out,
// routing Warn and above to Err so errors land on os.Stderr while
// routine progress goes to stdout.
type Logger struct {
	Level Level
	Out   io.Writer
	Err   io.Writer
}

// NewLogger builds a Logger at the given level writing to stdout/
// stderr, the default used by cmd/sixc.
func NewLogger(level Level) *Logger {
	return &Logger{Level: level, Out: os.Stdout, Err: os.Stderr}
}

func (lg *Logger) writer(level Level) io.Writer {
	if level >= Warn {
		if lg.Err != nil {
			return lg.Err
		}
		return os.Stderr
	}
	if lg.Out != nil {
		return lg.Out
	}
	return os.Stdout
}

func (lg *Logger) log(level Level, format string, args ...interface{}) {
	if level < lg.Level {
		return
	}
	fmt.Fprintf(lg.writer(level), format, args...)
	fmt.Fprintln(lg.writer(level))
}

func (lg *Logger) Tracef(format string, args ...interface{}) { lg.log(Trace, format, args...) }
func (lg *Logger) Debugf(format string, args ...interface{}) { lg.log(Debug, format, args...) }
func (lg *Logger) Infof(format string, args ...interface{})  { lg.log(Info, format, args...) }
func (lg *Logger) Warnf(format string, args ...interface{})  { lg.log(Warn, format, args...) }
func (lg *Logger) Errorf(format string, args ...interface{}) { lg.log(Error, format, args...) }

// Section prints a phase banner, gated at Debug so it appears from -vv
// on, together with the other Debug output.
func (lg *Logger) Section(name string) {
	if Debug < lg.Level {
		return
	}
	rule := strings.Repeat("-", len(name)+6)
	w := lg.writer(Debug)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "-- %s --\n", name)
	fmt.Fprintln(w, rule)
}

// Bytes logs a hex dump of b starting at addr, gated at Trace since
// it is the highest-volume output the compiler produces.
func (lg *Logger) Bytes(addr int, b []byte) {
	if Trace < lg.Level {
		return
	}
	for i := 0; i < len(b); i += 8 {
		j := i + 8
		if j > len(b) {
			j = len(b)
		}
		lg.log(Trace, "%04X- % x", addr+i, b[i:j])
	}
}
