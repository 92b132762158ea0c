package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	input := `
# recorded 2019-03-12, user 4
0.0  1 0 0 0
0.1  0.9238795 0 0 0.3826834

0.2  2 0 0 0
`
	samples, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}
	if samples[0].T != 0.0 || samples[2].T != 0.2 {
		t.Errorf("timestamps = %g, %g; want 0.0, 0.2", samples[0].T, samples[2].T)
	}
	// non-unit input is normalized on ingest
	if got := samples[2].Q.Quaternion().Norm(); got < 0.999999999 || got > 1.000000001 {
		t.Errorf("norm = %g, want 1", got)
	}
	if samples[2].Q.W() != 1 {
		t.Errorf("w = %g, want 1 after normalizing (2,0,0,0)", samples[2].Q.W())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"short_line", "0.0 1 0 0"},
		{"long_line", "0.0 1 0 0 0 0"},
		{"not_a_number", "0.0 one 0 0 0"},
		{"zero_quaternion", "0.0 0 0 0 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParse_ErrorReportsLineNumber(t *testing.T) {
	input := "0.0 1 0 0 0\n# comment\n0.1 bad 0 0 0\n"
	_, err := Parse(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected line 3 in error, got: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, []byte("0.0 1 0 0 0\n1.5 0 1 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	samples, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("samples = %d, want 2", len(samples))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
