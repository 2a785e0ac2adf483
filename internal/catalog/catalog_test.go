package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lotwatch/internal/catalog"
)

const sampleDoc = `
[[process]]
name = "4420-DC-Casting"
serialization = "jbk"
required = ["jbk", "die"]

  [[process.part]]
  number = "57110-RAD-0010"
  name = "Knuckle"

[[process]]
name = "4480-DC-Machining"
type = "Machining"
serialization = "lot"
pass_through = "jbk"
previous = ["4420-DC-Casting", "4410-Unused"]
required = ["heat", "lot", "jbk"]

  [[process.part]]
  number = "57110-RAD-0010"

  [[process.part]]
  number = "62000-XYZ-1"
  model = "ZZ9"
`

func TestParseBuildsProcesses(t *testing.T) {
	doc := strings.Replace(sampleDoc, `, "4410-Unused"`, "", 1)
	cat, err := catalog.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	machining, err := cat.GetProcess("4480-DC-Machining")
	if err != nil {
		t.Fatalf("GetProcess failed: %v", err)
	}
	if machining.Type != catalog.TypeMachining {
		t.Fatalf("expected machining type, got %s", machining.Type)
	}
	if machining.EffectiveSerial() != catalog.SerialJBK {
		t.Fatalf("expected pass-through to override serialization, got %s", machining.EffectiveSerial())
	}
	prev, ok := machining.PreviousProcess()
	if !ok || prev != "4420-DC-Casting" {
		t.Fatalf("unexpected previous process %q %v", prev, ok)
	}
	want := catalog.RequiredFields{JBK: true, Lot: true, Heat: true}
	if machining.Required != want {
		t.Fatalf("unexpected required fields: %+v", machining.Required)
	}
	if machining.Required.Count() != 3 {
		t.Fatalf("unexpected required count: %d", machining.Required.Count())
	}

	part, err := cat.GetPart("4480-DC-Machining", "57110-RAD-0010")
	if err != nil {
		t.Fatalf("GetPart failed: %v", err)
	}
	if part.Model != "RAD" {
		t.Fatalf("expected model code from part key, got %q", part.Model)
	}
	override, err := cat.GetPart("4480-DC-Machining", "62000-XYZ-1")
	if err != nil {
		t.Fatalf("GetPart failed: %v", err)
	}
	if override.Model != "ZZ9" {
		t.Fatalf("expected model override, got %q", override.Model)
	}

	names := make([]string, 0)
	for _, p := range cat.Processes() {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "4420-DC-Casting,4480-DC-Machining" {
		t.Fatalf("unexpected process order: %v", names)
	}
}

func TestLookupsReportUnknownNames(t *testing.T) {
	doc := strings.Replace(sampleDoc, `, "4410-Unused"`, "", 1)
	cat, err := catalog.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := cat.GetProcess("missing"); !errors.Is(err, catalog.ErrUnknownProcess) {
		t.Fatalf("expected ErrUnknownProcess, got %v", err)
	}
	if _, err := cat.GetPart("missing", "57110-RAD-0010"); !errors.Is(err, catalog.ErrUnknownProcess) {
		t.Fatalf("expected ErrUnknownProcess, got %v", err)
	}
	if _, err := cat.GetPart("4420-DC-Casting", "nope"); !errors.Is(err, catalog.ErrUnknownPart) {
		t.Fatalf("expected ErrUnknownPart, got %v", err)
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "serialization field not required",
			doc:     "[[process]]\nname = \"A\"\nserialization = \"lot\"\nrequired = [\"jbk\"]\n",
			wantErr: "lot serialization",
		},
		{
			name:    "missing serialization",
			doc:     "[[process]]\nname = \"A\"\nrequired = [\"jbk\"]\n",
			wantErr: "serialization must be",
		},
		{
			name:    "duplicate names",
			doc:     "[[process]]\nname = \"A\"\nserialization = \"jbk\"\nrequired = [\"jbk\"]\n[[process]]\nname = \"A\"\nserialization = \"jbk\"\nrequired = [\"jbk\"]\n",
			wantErr: "duplicate process",
		},
		{
			name:    "unknown field",
			doc:     "[[process]]\nname = \"A\"\nserialization = \"jbk\"\nrequired = [\"jbk\", \"color\"]\n",
			wantErr: "unknown required field",
		},
		{
			name:    "undefined previous",
			doc:     sampleDoc,
			wantErr: "4410-Unused",
		},
		{
			name:    "delimiter in name",
			doc:     "[[process]]\nname = \"A,B\"\nserialization = \"jbk\"\nrequired = [\"jbk\"]\n",
			wantErr: "reserved character",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestModelCode(t *testing.T) {
	cases := map[string]string{
		"57110-RAD-0010": "RAD",
		"A-B":            "B",
		"NOHYPHEN":       "",
	}
	for key, want := range cases {
		if got := catalog.ModelCode(key); got != want {
			t.Fatalf("ModelCode(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestSampleCatalogLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processes.toml")
	if err := catalog.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(cat.Processes()) != 3 {
		t.Fatalf("expected 3 sample processes, got %d", len(cat.Processes()))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
