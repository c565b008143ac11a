package translator

import (
	"io"
	"strings"
)

// Sink receives generated assembly, one line at a time.
type Sink interface {
	WriteLine(line string) error
}

type writerSink struct {
	w io.Writer
}

// NewWriterSink returns a Sink that writes newline-terminated lines to w.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) WriteLine(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// Buffer is an in-memory Sink.
type Buffer struct {
	lines []string
}

func (b *Buffer) WriteLine(line string) error {
	b.lines = append(b.lines, line)
	return nil
}

// Lines returns the collected lines.
func (b *Buffer) Lines() []string { return b.lines }

// String joins the collected lines, each terminated by a newline.
func (b *Buffer) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}
