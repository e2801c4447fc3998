package hsf

import (
	"fmt"
	"io"
)

// Logger traces parsing steps. nil Logger is silent.
type Logger struct {
	io.Writer
	Prefix string
}

func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{Writer: w}
}

// Section returns logger with section name prepended to messages
func (l *Logger) Section(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Writer: l.Writer, Prefix: l.Prefix + "[" + name + "] "}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l != nil {
		fmt.Fprintf(l, l.Prefix+format+"\n", a...)
	}
}
