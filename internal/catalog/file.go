package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_processes.toml
var sampleCatalog string

type fileDocument struct {
	Processes []fileProcess `toml:"process"`
}

type fileProcess struct {
	Name          string     `toml:"name"`
	Type          string     `toml:"type"`
	Serialization string     `toml:"serialization"`
	PassThrough   string     `toml:"pass_through"`
	Previous      []string   `toml:"previous"`
	Required      []string   `toml:"required"`
	Parts         []filePart `toml:"part"`
}

type filePart struct {
	Number string `toml:"number"`
	Name   string `toml:"name"`
	Model  string `toml:"model"`
}

// Static is an in-memory catalog.
type Static struct {
	processes map[string]Process
	order     []string
}

// LoadFile parses a processes.toml catalog.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from TOML content.
func Parse(data []byte) (*Static, error) {
	var doc fileDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	processes := make([]Process, 0, len(doc.Processes))
	for idx, raw := range doc.Processes {
		process, err := raw.toProcess()
		if err != nil {
			return nil, fmt.Errorf("process %d (%s): %w", idx+1, raw.Name, err)
		}
		processes = append(processes, process)
	}
	return New(processes...)
}

// New validates and indexes the supplied processes.
func New(processes ...Process) (*Static, error) {
	s := &Static{processes: make(map[string]Process, len(processes))}
	for _, process := range processes {
		if process.Name == "" {
			return nil, errors.New("process name must be set")
		}
		if strings.ContainsAny(process.Name, ",:/\\") {
			return nil, fmt.Errorf("process name %q contains a reserved character", process.Name)
		}
		if _, exists := s.processes[process.Name]; exists {
			return nil, fmt.Errorf("duplicate process %q", process.Name)
		}
		if err := validateProcess(process); err != nil {
			return nil, fmt.Errorf("process %s: %w", process.Name, err)
		}
		s.processes[process.Name] = process
		s.order = append(s.order, process.Name)
	}
	for _, name := range s.order {
		for _, previous := range s.processes[name].Previous {
			if _, exists := s.processes[previous]; !exists {
				return nil, fmt.Errorf("process %s: previous process %q is not defined", name, previous)
			}
		}
	}
	return s, nil
}

func validateProcess(p Process) error {
	switch p.Serialization {
	case SerialJBK:
		if !p.Required.JBK {
			return errors.New("jbk serialization requires the jbk field")
		}
	case SerialLot:
		if !p.Required.Lot {
			return errors.New("lot serialization requires the lot field")
		}
	default:
		return errors.New("serialization must be jbk or lot")
	}
	switch p.PassThrough {
	case SerialJBK:
		if !p.Required.JBK {
			return errors.New("jbk pass-through requires the jbk field")
		}
	case SerialLot:
		if !p.Required.Lot {
			return errors.New("lot pass-through requires the lot field")
		}
	}
	for _, prev := range p.Previous {
		if strings.TrimSpace(prev) == "" {
			return errors.New("previous process names must not be empty")
		}
		if prev == p.Name {
			return errors.New("process cannot precede itself")
		}
	}
	return nil
}

func (raw fileProcess) toProcess() (Process, error) {
	p := Process{
		Name:     strings.TrimSpace(raw.Name),
		parts:    make(map[string]Part, len(raw.Parts)),
		Previous: make([]string, 0, len(raw.Previous)),
	}
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "machining":
		p.Type = TypeMachining
	case "", "other":
		p.Type = TypeOther
	default:
		p.Type = TypeOther
	}
	var err error
	if p.Serialization, err = ParseSerialKind(raw.Serialization); err != nil {
		return Process{}, fmt.Errorf("serialization: %w", err)
	}
	if p.PassThrough, err = ParseSerialKind(raw.PassThrough); err != nil {
		return Process{}, fmt.Errorf("pass_through: %w", err)
	}
	for _, prev := range raw.Previous {
		p.Previous = append(p.Previous, strings.TrimSpace(prev))
	}
	for _, field := range raw.Required {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "jbk":
			p.Required.JBK = true
		case "lot":
			p.Required.Lot = true
		case "deburr_jbk":
			p.Required.DeburrJBK = true
		case "die":
			p.Required.Die = true
		case "model":
			p.Required.Model = true
		case "heat":
			p.Required.Heat = true
		default:
			return Process{}, fmt.Errorf("unknown required field %q", field)
		}
	}
	for _, rawPart := range raw.Parts {
		part := NewPart(strings.TrimSpace(rawPart.Number))
		if part.Number == "" {
			return Process{}, errors.New("part number must be set")
		}
		if strings.ContainsAny(part.Number, ",:") {
			return Process{}, fmt.Errorf("part number %q contains a reserved delimiter", part.Number)
		}
		if _, exists := p.parts[part.Number]; exists {
			return Process{}, fmt.Errorf("duplicate part %q", part.Number)
		}
		part.Name = strings.TrimSpace(rawPart.Name)
		if model := strings.TrimSpace(rawPart.Model); model != "" {
			part.Model = model
		}
		p.parts[part.Number] = part
		p.partOrder = append(p.partOrder, part.Number)
	}
	return p, nil
}

// WithParts returns a copy of p holding the supplied parts.
func (p Process) WithParts(parts ...Part) Process {
	p.parts = make(map[string]Part, len(parts))
	p.partOrder = nil
	for _, part := range parts {
		if part.Model == "" {
			part.Model = ModelCode(part.Number)
		}
		p.parts[part.Number] = part
		p.partOrder = append(p.partOrder, part.Number)
	}
	return p
}

// GetProcess returns the named process or ErrUnknownProcess.
func (s *Static) GetProcess(name string) (Process, error) {
	process, ok := s.processes[name]
	if !ok {
		return Process{}, fmt.Errorf("%w: %q", ErrUnknownProcess, name)
	}
	return process, nil
}

// GetPart returns a part configured for the named process.
func (s *Static) GetPart(processName, partKey string) (Part, error) {
	process, err := s.GetProcess(processName)
	if err != nil {
		return Part{}, err
	}
	part, ok := process.parts[partKey]
	if !ok {
		return Part{}, fmt.Errorf("%w: %q for process %s", ErrUnknownPart, partKey, processName)
	}
	return part, nil
}

// Processes returns every process in catalog order.
func (s *Static) Processes() []Process {
	out := make([]Process, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.processes[name])
	}
	return out
}

// Names returns the sorted process names.
func (s *Static) Names() []string {
	names := append([]string(nil), s.order...)
	sort.Strings(names)
	return names
}

// CreateSample writes an example catalog to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		return fmt.Errorf("write sample catalog: %w", err)
	}
	return nil
}
