// Package catalog resolves manufacturing process and part definitions.
//
// Definitions are loaded once from a TOML file and are immutable afterwards.
// Lookups distinguish unknown names (ErrUnknownProcess, ErrUnknownPart) from
// I/O and parse failures raised by LoadFile.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProcess reports a process name absent from the catalog.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrUnknownPart reports a part key absent from a process definition.
	ErrUnknownPart = errors.New("unknown part")
)

// Catalog looks up process and part definitions by name.
type Catalog interface {
	GetProcess(name string) (Process, error)
	GetPart(processName, partKey string) (Part, error)
	Processes() []Process
}

// SerialKind selects which variable field identifies a physical unit.
type SerialKind int

const (
	SerialNone SerialKind = iota
	SerialJBK
	SerialLot
)

func (k SerialKind) String() string {
	switch k {
	case SerialJBK:
		return "jbk"
	case SerialLot:
		return "lot"
	default:
		return "none"
	}
}

// ParseSerialKind accepts "jbk", "lot", or an empty/"none" value.
func ParseSerialKind(value string) (SerialKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return SerialNone, nil
	case "jbk":
		return SerialJBK, nil
	case "lot":
		return SerialLot, nil
	default:
		return SerialNone, fmt.Errorf("invalid serial kind %q", value)
	}
}

// ProcessType distinguishes machining steps from every other step.
type ProcessType int

const (
	TypeOther ProcessType = iota
	TypeMachining
)

func (t ProcessType) String() string {
	if t == TypeMachining {
		return "machining"
	}
	return "other"
}

// RequiredFields flags which variable fields a process expects on every scan.
type RequiredFields struct {
	JBK       bool
	Lot       bool
	DeburrJBK bool
	Die       bool
	Model     bool
	Heat      bool
}

// Count returns the number of required variable fields.
func (r RequiredFields) Count() int {
	n := 0
	for _, flag := range []bool{r.JBK, r.Lot, r.DeburrJBK, r.Die, r.Model, r.Heat} {
		if flag {
			n++
		}
	}
	return n
}

// Process describes one manufacturing step.
type Process struct {
	Name          string
	Type          ProcessType
	Serialization SerialKind
	PassThrough   SerialKind
	Previous      []string
	Required      RequiredFields
	parts         map[string]Part
	partOrder     []string
}

// PreviousProcess returns the upstream process whose table gates this one.
// Only the first configured entry is consulted.
func (p Process) PreviousProcess() (string, bool) {
	if len(p.Previous) == 0 {
		return "", false
	}
	return p.Previous[0], true
}

// EffectiveSerial returns the serial kind used to identify units scanned at this process.
// A pass-through kind overrides the process's own serialization mode.
func (p Process) EffectiveSerial() SerialKind {
	if p.PassThrough != SerialNone {
		return p.PassThrough
	}
	return p.Serialization
}

// Parts returns the process parts in catalog order.
func (p Process) Parts() []Part {
	out := make([]Part, 0, len(p.partOrder))
	for _, key := range p.partOrder {
		out = append(out, p.parts[key])
	}
	return out
}

// Part identifies a part number and its model code.
type Part struct {
	Number string
	Name   string
	Model  string
}

// NewPart builds a Part whose model code is derived from the part key.
func NewPart(number string) Part {
	return Part{Number: number, Model: ModelCode(number)}
}

// ModelCode extracts the second hyphen-delimited segment of a part key.
// Keys without a second segment yield an empty code.
func ModelCode(partKey string) string {
	segments := strings.Split(partKey, "-")
	if len(segments) < 2 {
		return ""
	}
	return strings.TrimSpace(segments[1])
}
