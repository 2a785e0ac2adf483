package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Line builds an inbox line: scan timestamp, address, process, part, quantity,
// variable fields, production timestamp, shift, operator.
func Line(scanTime, address, process, quantity string, vars []string, producedAt, shift, operator string) string {
	fields := []string{scanTime, address, process, PartKey, quantity}
	fields = append(fields, vars...)
	fields = append(fields, producedAt, shift, operator)
	return strings.Join(fields, ",")
}

// Row builds the stored table row matching Line for a single data set.
func Row(scanTime, address, process, quantity string, vars []string, producedAt, shift, operator string) string {
	fields := []string{process, scanTime, address, PartKey, quantity}
	fields = append(fields, vars...)
	fields = append(fields, producedAt, shift, operator)
	return strings.Join(fields, ",")
}

// WriteTable writes rows to the process table under dir.
func WriteTable(t testing.TB, dir, process string, rows ...string) string {
	t.Helper()

	path := filepath.Join(dir, process+".txt")
	WriteLines(t, path, rows...)
	return path
}

// WriteLines writes newline-terminated lines to path.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadLines returns the non-empty lines of path.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
