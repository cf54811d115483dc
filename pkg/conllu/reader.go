package conllu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader parses CoNLL-U sentences from an input stream one at a time.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next sentence. It returns io.EOF once the input is
// exhausted. Errors carry the 1-based line number of the offending row.
func (r *Reader) Next() (Sentence, error) {
	var s Sentence
	started := false
	for r.sc.Scan() {
		r.line++
		line := strings.TrimRight(r.sc.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if started {
				return s, nil
			}
			continue
		}
		started = true

		if strings.HasPrefix(line, "#") {
			s.Metadata = append(s.Metadata, parseComment(line))
			continue
		}

		t, err := ParseToken(line)
		if err != nil {
			return Sentence{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		s.Tokens = append(s.Tokens, t)
	}
	if err := r.sc.Err(); err != nil {
		return Sentence{}, err
	}
	if started {
		return s, nil
	}
	return Sentence{}, io.EOF
}

func parseComment(line string) Comment {
	text := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	key, value, ok := strings.Cut(text, "=")
	if !ok {
		return Comment{Value: text}
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return Comment{Value: text}
	}
	return Comment{Key: key, Value: strings.TrimSpace(value)}
}

// ReadAll parses every sentence from r.
func ReadAll(r io.Reader) ([]Sentence, error) {
	var out []Sentence
	cr := NewReader(r)
	for {
		s, err := cr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// ReadFile parses every sentence in the named file.
func ReadFile(path string) ([]Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sentences, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sentences, nil
}
