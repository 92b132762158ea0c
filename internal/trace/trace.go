// Package trace reads recorded head-movement logs: one orientation
// sample per line as `<seconds> <w> <x> <y> <z>`, whitespace
// separated. Blank lines and lines starting with '#' are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/acahuzac/tilevis/internal/logic/orientation"
)

// Sample is one timestamped head orientation.
type Sample struct {
	T float64 // seconds since the start of the recording
	Q orientation.UnitQuaternion
}

// Load reads and parses a trace file.
func Load(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	samples, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// Parse reads samples from r. Quaternions are normalized on ingest so
// downstream rotation math can rely on unit norm; a zero quaternion in
// the log is an error.
func Parse(r io.Reader) ([]Sample, error) {
	var samples []Sample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		s, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return samples, nil
}

func parseLine(text string) (Sample, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return Sample{}, fmt.Errorf("want 5 fields (t w x y z), got %d", len(fields))
	}
	vals := make([]float64, 5)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	q, err := orientation.NewComponents(vals[1], vals[2], vals[3], vals[4]).Normalized()
	if err != nil {
		return Sample{}, fmt.Errorf("invalid orientation: %w", err)
	}
	return Sample{T: vals[0], Q: q}, nil
}
