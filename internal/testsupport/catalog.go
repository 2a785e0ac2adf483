package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lotwatch/internal/catalog"
)

// Process names used by the standard test catalog.
const (
	Casting   = "4420-DC-Casting"
	Deburr    = "4470-DC-Deburr"
	Machining = "4480-DC-Machining"
	Shipping  = "4490-Shipping"
	PartKey   = "57110-RAD-0010"
)

// CatalogTOML is a three-step line with a deburr to machining handoff and a
// standalone shipping step.
const CatalogTOML = `
[[process]]
name = "4420-DC-Casting"
serialization = "jbk"
required = ["jbk", "die"]

  [[process.part]]
  number = "57110-RAD-0010"

[[process]]
name = "4470-DC-Deburr"
serialization = "jbk"
previous = ["4420-DC-Casting"]
required = ["jbk"]

  [[process.part]]
  number = "57110-RAD-0010"

[[process]]
name = "4480-DC-Machining"
type = "machining"
serialization = "lot"
previous = ["4470-DC-Deburr"]
required = ["lot", "deburr_jbk"]

  [[process.part]]
  number = "57110-RAD-0010"

[[process]]
name = "4490-Shipping"
serialization = "lot"
required = ["lot"]

  [[process.part]]
  number = "57110-RAD-0010"
`

// WriteCatalog writes CatalogTOML to path and loads it.
func WriteCatalog(t testing.TB, path string) *catalog.Static {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(CatalogTOML), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("catalog.LoadFile: %v", err)
	}
	return cat
}

// Catalog returns the standard test catalog without touching disk.
func Catalog(t testing.TB) *catalog.Static {
	t.Helper()

	cat, err := catalog.Parse([]byte(CatalogTOML))
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}
	return cat
}
