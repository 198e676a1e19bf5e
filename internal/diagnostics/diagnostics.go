// Package diagnostics renders user-facing CLI output.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	werrors "github.com/toyz/weaver/internal/errors"
)

// Level controls how much output is written
type Level int

const (
	Silent Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	VerboseLevel
)

// System writes leveled, optionally colored messages
type System struct {
	level  Level
	out    io.Writer
	errOut io.Writer
	indent int

	red, yellow, blue, green, cyan, gray *color.Color
}

// NewWithWriters creates a diagnostic system with explicit writers
func NewWithWriters(level Level, out, errOut io.Writer, colors bool) *System {
	s := &System{
		level:  level,
		out:    out,
		errOut: errOut,
		red:    color.New(color.FgRed, color.Bold),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		gray:   color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{s.red, s.yellow, s.blue, s.green, s.cyan, s.gray} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Level returns the configured level
func (s *System) Level() Level { return s.level }

// Out returns the standard output writer
func (s *System) Out() io.Writer { return s.out }

// Error prints an error message
func (s *System) Error(format string, args ...interface{}) {
	if s.level >= ErrorLevel {
		s.write(s.errOut, s.red, "ERROR", format, args...)
	}
}

// Warn prints a warning
func (s *System) Warn(format string, args ...interface{}) {
	if s.level >= WarnLevel {
		s.write(s.errOut, s.yellow, "WARN", format, args...)
	}
}

// Info prints an informational message
func (s *System) Info(format string, args ...interface{}) {
	if s.level >= InfoLevel {
		s.write(s.out, s.blue, "INFO", format, args...)
	}
}

// Verbose prints detail shown only in verbose mode
func (s *System) Verbose(format string, args ...interface{}) {
	if s.level >= VerboseLevel {
		s.write(s.out, s.gray, "VERBOSE", format, args...)
	}
}

// Success prints a check-marked line
func (s *System) Success(format string, args ...interface{}) {
	if s.level >= InfoLevel {
		fmt.Fprintf(s.out, "%s", s.prefix())
		s.green.Fprint(s.out, "✓ ")
		fmt.Fprintf(s.out, format+"\n", args...)
	}
}

// Header prints a colored title line
func (s *System) Header(format string, args ...interface{}) {
	if s.level >= InfoLevel {
		fmt.Fprint(s.out, s.prefix())
		s.cyan.Fprintf(s.out, format+"\n", args...)
	}
}

// Line prints an undecorated, indented line
func (s *System) Line(format string, args ...interface{}) {
	if s.level >= InfoLevel {
		fmt.Fprintf(s.out, s.prefix()+format+"\n", args...)
	}
}

// Indent increases the indentation of following lines
func (s *System) Indent() { s.indent++ }

// Unindent decreases the indentation of following lines
func (s *System) Unindent() {
	if s.indent > 0 {
		s.indent--
	}
}

// Report prints err with locations and suggestions. Collected errors are
// listed one by one.
func (s *System) Report(err error) {
	if err == nil || s.level < ErrorLevel {
		return
	}

	var multi *werrors.MultipleErrors
	if errors.As(err, &multi) && multi.Count() > 1 {
		s.Error("%d errors", multi.Count())
		s.Indent()
		for _, e := range multi.Errors {
			s.reportOne(e)
		}
		s.Unindent()
		return
	}
	s.reportOne(err)
}

func (s *System) reportOne(err error) {
	s.Error("%s", err.Error())

	var weaverErr werrors.WeaverError
	if !errors.As(err, &weaverErr) {
		return
	}
	hints := weaverErr.Suggestions()
	var cause *werrors.BaseError
	if errors.As(weaverErr.Unwrap(), &cause) {
		hints = append(hints, cause.Suggestions()...)
	}
	for _, hint := range hints {
		fmt.Fprint(s.errOut, s.prefix()+"  ")
		s.gray.Fprintf(s.errOut, "hint: %s\n", hint)
	}
}

func (s *System) write(w io.Writer, c *color.Color, label, format string, args ...interface{}) {
	fmt.Fprint(w, s.prefix())
	c.Fprintf(w, "[%s]", label)
	fmt.Fprintf(w, " "+format+"\n", args...)
}

func (s *System) prefix() string {
	return strings.Repeat("  ", s.indent)
}
