package scan

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"lotwatch/internal/catalog"
)

const (
	delimiter = ","
	// fixedFields counts every column except the variable fields.
	fixedFields = 8
)

// MaxLineBytes bounds an inbox line. Longer lines cannot come from a scanner.
const MaxLineBytes = 64 * 1024

// Codec translates between text lines and events using a process catalog.
type Codec struct {
	catalog catalog.Catalog
}

// NewCodec returns a codec resolving processes and parts through c.
func NewCodec(c catalog.Catalog) *Codec {
	return &Codec{catalog: c}
}

// Decode parses one inbox line.
func (c *Codec) Decode(line string) (Event, error) {
	if len(line) > MaxLineBytes {
		return Event{}, formatErr("record", "", fmt.Sprintf("line is %d bytes, limit is %d", len(line), MaxLineBytes))
	}
	fields := strings.Split(strings.TrimRight(line, "\r\n"), delimiter)
	if len(fields) < fixedFields {
		return Event{}, formatErr("record", "", fmt.Sprintf("expected at least %d fields, got %d", fixedFields, len(fields)))
	}

	process, err := c.lookupProcess(fields[2])
	if err != nil {
		return Event{}, err
	}
	if err := checkFieldCount(process, fields); err != nil {
		return Event{}, err
	}
	part, err := c.lookupPart(process.Name, fields[3])
	if err != nil {
		return Event{}, err
	}

	n := process.Required.Count()
	return assemble(process, part, fields[0], fields[1], fields[4], fields[5:5+n], fields[5+n:])
}

// DecodeRow parses one stored table row. Parts missing from the catalog are
// rebuilt from the stored key so historical rows stay readable.
func (c *Codec) DecodeRow(line string) (Event, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), delimiter)
	if len(fields) < fixedFields {
		return Event{}, formatErr("row", "", fmt.Sprintf("expected at least %d fields, got %d", fixedFields, len(fields)))
	}

	process, err := c.lookupProcess(fields[0])
	if err != nil {
		return Event{}, err
	}
	if err := checkFieldCount(process, fields); err != nil {
		return Event{}, err
	}
	partKey := strings.TrimSpace(fields[3])
	part, err := c.catalog.GetPart(process.Name, partKey)
	if err != nil {
		if !errors.Is(err, catalog.ErrUnknownPart) {
			return Event{}, err
		}
		part = catalog.NewPart(partKey)
	}

	n := process.Required.Count()
	return assemble(process, part, fields[1], fields[2], fields[4], fields[5:5+n], fields[5+n:])
}

func checkFieldCount(process catalog.Process, fields []string) error {
	want := fixedFields + process.Required.Count()
	if len(fields) != want {
		return formatErr("record", "", fmt.Sprintf("process %s expects %d fields, got %d", process.Name, want, len(fields)))
	}
	return nil
}

// assemble builds an event; tail holds production timestamp, shift, and operator.
func assemble(process catalog.Process, part catalog.Part, scanRaw, addrRaw, quantityRaw string, variable, tail []string) (Event, error) {
	scanTime, err := parseTimestamp("scan timestamp", scanRaw)
	if err != nil {
		return Event{}, err
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(addrRaw))
	if err != nil {
		return Event{}, formatErr("device address", addrRaw, "not an IP address")
	}
	fields, err := parseVariableFields(process.Required, variable)
	if err != nil {
		return Event{}, err
	}
	producedAt, err := parseTimestamp("production timestamp", tail[0])
	if err != nil {
		return Event{}, err
	}
	primary, partials, err := parseDataSets(quantityRaw, tail[1], tail[2])
	if err != nil {
		return Event{}, err
	}
	return Event{
		ScanTime:   scanTime,
		Address:    addr,
		Process:    process,
		Part:       part,
		Fields:     fields,
		ProducedAt: producedAt,
		Primary:    primary,
		Partials:   partials,
	}, nil
}

func (c *Codec) lookupProcess(raw string) (catalog.Process, error) {
	name := strings.TrimSpace(raw)
	process, err := c.catalog.GetProcess(name)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownProcess) {
			return catalog.Process{}, &SchemaLookupError{Kind: "Process", Name: name, Err: err}
		}
		return catalog.Process{}, err
	}
	return process, nil
}

func (c *Codec) lookupPart(processName, raw string) (catalog.Part, error) {
	key := strings.TrimSpace(raw)
	part, err := c.catalog.GetPart(processName, key)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownPart) || errors.Is(err, catalog.ErrUnknownProcess) {
			return catalog.Part{}, &SchemaLookupError{Kind: "Part", Name: key, Err: err}
		}
		return catalog.Part{}, err
	}
	return part, nil
}

// Encode renders the stored row for e. Only the primary data set is kept.
func Encode(e Event) string {
	values := e.Fields.Values()
	parts := make([]string, 0, fixedFields+len(values))
	parts = append(parts,
		e.Process.Name,
		FormatTimestamp(e.ScanTime),
		e.Address.String(),
		e.Part.Number,
		strconv.Itoa(e.Primary.Quantity),
	)
	parts = append(parts, values...)
	parts = append(parts,
		FormatTimestamp(e.ProducedAt),
		e.Primary.Shift.String(),
		e.Primary.Operator,
	)
	return strings.Join(parts, delimiter)
}

// EncodeLine renders e in inbox form, including partial data sets.
func EncodeLine(e Event) string {
	sets := append([]DataSet{e.Primary}, e.Partials...)
	quantities := make([]string, len(sets))
	shifts := make([]string, len(sets))
	operators := make([]string, len(sets))
	for i, set := range sets {
		quantities[i] = strconv.Itoa(set.Quantity)
		shifts[i] = set.Shift.String()
		operators[i] = set.Operator
	}
	parts := []string{
		FormatTimestamp(e.ScanTime),
		e.Address.String(),
		e.Process.Name,
		e.Part.Number,
		strings.Join(quantities, ":"),
	}
	parts = append(parts, e.Fields.Values()...)
	parts = append(parts,
		FormatTimestamp(e.ProducedAt),
		strings.Join(shifts, ":"),
		strings.Join(operators, ":"),
	)
	return strings.Join(parts, delimiter)
}
