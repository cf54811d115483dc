package analyze

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FrequencyTable maps lower-cased word forms to Zipf frequencies.
type FrequencyTable map[string]float64

// Lookup returns the frequency of form, or 0 for unknown words.
func (f FrequencyTable) Lookup(form string) float64 {
	return f[strings.ToLower(form)]
}

// ReadFrequencyTable parses "form<TAB>frequency" lines. Blank lines and
// lines starting with '#' are skipped.
func ReadFrequencyTable(r io.Reader) (FrequencyTable, error) {
	out := FrequencyTable{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		form, value, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected form<TAB>frequency", line)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out[strings.ToLower(form)] = f
	}
	return out, sc.Err()
}

// ReadFrequencyFile parses a frequency table from the named file.
func ReadFrequencyFile(path string) (FrequencyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrequencyTable(f)
}
