package grammar

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Read parses grammars from NDJSON, one per non-blank line. A line is either
// a {"deprel": weight} object or a training record whose "grammar" field
// holds one.
func Read(r io.Reader) ([]Grammar, error) {
	var out []Grammar
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		g, err := parseLine(data)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidGrammar, err, "line %d", line)
		}
		out = append(out, g)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(data []byte) (Grammar, error) {
	var record struct {
		Grammar Grammar `json:"grammar"`
	}
	var g Grammar
	if err := json.Unmarshal(data, &record); err == nil && record.Grammar != nil {
		g = record.Grammar
	} else if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("expected a grammar object: %w", err)
	}
	for _, rel := range slices.Sorted(maps.Keys(g)) {
		if w := g[rel]; w < -1 || w > 1 {
			return nil, fmt.Errorf("weight %v for %q outside [-1, 1]", w, rel)
		}
	}
	return g, nil
}

// ReadFile parses grammars from the named NDJSON file.
func ReadFile(path string) ([]Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write writes each grammar as one JSON line.
func Write(w io.Writer, grammars []Grammar) error {
	enc := json.NewEncoder(w)
	for _, g := range grammars {
		if err := enc.Encode(g); err != nil {
			return err
		}
	}
	return nil
}
