package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewTextReader wraps r so a leading UTF-8 or UTF-16 byte order mark is
// consumed and UTF-16 content is decoded to UTF-8.
func NewTextReader(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

// ScanLines returns the non-blank lines of r with trailing carriage returns
// removed. Lines have no length limit.
func ScanLines(r io.Reader) ([]string, error) {
	reader := bufio.NewReader(NewTextReader(r))
	var lines []string
	for {
		raw, err := reader.ReadString('\n')
		if line := strings.TrimRight(raw, "\r\n"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadLines opens path and returns its non-blank lines.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ScanLines(file)
}

// WriteLinesAtomic replaces path with lines, one per row, via a synced
// temporary file renamed into place.
func WriteLinesAtomic(path string, lines []string, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	writer := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := writer.WriteString(line); err != nil {
			cleanup()
			return err
		}
		if err := writer.WriteByte('\n'); err != nil {
			cleanup()
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// AppendText appends text to path, creating the file when needed.
func AppendText(path, text string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(text); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
