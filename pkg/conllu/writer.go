package conllu

import (
	"bufio"
	"io"
	"os"
)

// Writer serializes sentences in CoNLL-U format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes s followed by a blank line.
func (w *Writer) Write(s Sentence) error {
	for _, c := range s.Metadata {
		if c.Key == "" {
			w.w.WriteString("# " + c.Value + "\n")
			continue
		}
		w.w.WriteString("# " + c.Key + " = " + c.Value + "\n")
	}
	for _, t := range s.Tokens {
		w.w.WriteString(t.String())
		w.w.WriteByte('\n')
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteAll writes every sentence to w and flushes.
func WriteAll(w io.Writer, sentences []Sentence) error {
	cw := NewWriter(w)
	for _, s := range sentences {
		if err := cw.Write(s); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// WriteFile writes every sentence to the named file, replacing it.
func WriteFile(path string, sentences []Sentence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteAll(f, sentences); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
