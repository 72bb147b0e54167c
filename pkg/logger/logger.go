// Package logger provides the structured logging interface used across
// state-engine's resolution path (manifest load, placeholder resolution,
// store/load probes). It supports leveled output, prefix scoping so a
// caller can tell, from the log alone, which component (manifest, load,
// state) emitted a line without threading a component name through every
// call, and a small set of structured Fields for the call-site details
// (path, node, store key) that resolution logging actually needs attached
// to a message rather than interpolated into its format string.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Fields is a set of structured key/value pairs carried by a Logger
// returned from WithFields. Every message logged through that Logger has
// its fields appended, in sorted key order, as "key=value" pairs after the
// formatted message — so a cache-miss line and a recursion-guard line both
// carry their path/node/depth without baking them into the format string.
type Fields map[string]interface{}

// Logger is the logging interface every state-engine component accepts.
// Hosts may supply their own implementation; Default and Noop cover the
// common cases.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithPrefix(prefix string) Logger
	WithFields(fields Fields) Logger
	SetLevel(level Level)
}

// Options configures a Logger created with New.
type Options struct {
	Output        io.Writer
	Level         Level
	Prefix        string
	ShowTimestamp bool
}

func DefaultOptions() Options {
	return Options{
		Output:        os.Stderr,
		Level:         LevelInfo,
		ShowTimestamp: true,
	}
}

type stdLogger struct {
	logger *log.Logger
	level  Level
	prefix string
	fields Fields
}

// New creates a Logger from Options.
func New(opts Options) Logger {
	flags := 0
	if opts.ShowTimestamp {
		flags = log.LstdFlags
	}

	prefix := opts.Prefix
	if prefix != "" && prefix[len(prefix)-1] != ' ' {
		prefix += " "
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return &stdLogger{
		logger: log.New(output, prefix, flags),
		level:  opts.Level,
		prefix: prefix,
	}
}

// Default returns a Logger writing to stderr at LevelInfo.
func Default() Logger {
	return New(DefaultOptions())
}

// render formats the message and appends this logger's fields, sorted by
// key, so field order never depends on map iteration.
func (l *stdLogger) render(format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if len(l.fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
	}
	return b.String()
}

func (l *stdLogger) Debug(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.logger.Print("[DEBUG] " + l.render(format, args...))
	}
}

func (l *stdLogger) Info(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.logger.Print("[INFO] " + l.render(format, args...))
	}
}

func (l *stdLogger) Warn(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.logger.Print("[WARN] " + l.render(format, args...))
	}
}

func (l *stdLogger) Error(format string, args ...interface{}) {
	if l.level <= LevelError {
		l.logger.Print("[ERROR] " + l.render(format, args...))
	}
}

func (l *stdLogger) WithPrefix(prefix string) Logger {
	newPrefix := l.prefix + prefix
	if newPrefix != "" && newPrefix[len(newPrefix)-1] != ' ' {
		newPrefix += " "
	}
	return &stdLogger{
		logger: log.New(l.logger.Writer(), newPrefix, l.logger.Flags()),
		level:  l.level,
		prefix: newPrefix,
		fields: l.fields,
	}
}

// WithFields returns a Logger that carries fields in addition to any this
// logger already holds; an overlapping key takes the new value.
func (l *stdLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{
		logger: l.logger,
		level:  l.level,
		prefix: l.prefix,
		fields: merged,
	}
}

func (l *stdLogger) SetLevel(level Level) { l.level = level }

type noopLogger struct{}

// Noop returns a Logger that discards everything, for tests and callers
// with no interest in diagnostics.
func Noop() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithPrefix(string) Logger     { return noopLogger{} }
func (noopLogger) WithFields(Fields) Logger     { return noopLogger{} }
func (noopLogger) SetLevel(Level)               {}
