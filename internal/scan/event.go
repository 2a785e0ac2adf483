package scan

import (
	"net/netip"
	"time"

	"lotwatch/internal/catalog"
)

// Event is one decoded scan. Events are values and are never mutated after decoding.
type Event struct {
	ScanTime   time.Time
	Address    netip.Addr
	Process    catalog.Process
	Part       catalog.Part
	Fields     VariableFields
	ProducedAt time.Time
	Primary    DataSet
	// Partials holds up to two additional contributions from a split basket.
	Partials []DataSet
}

// Serial identifies the physical unit an event refers to.
type Serial struct {
	Kind  catalog.SerialKind
	Value string
	Part  string
}

// Serial derives the event's serial number from the process pass-through
// kind, falling back to its serialization mode.
func (e Event) Serial() (Serial, bool) {
	kind := e.Process.EffectiveSerial()
	switch kind {
	case catalog.SerialJBK:
		if e.Fields.JBK != nil {
			return Serial{Kind: kind, Value: e.Fields.JBK.String(), Part: e.Part.Number}, true
		}
	case catalog.SerialLot:
		if e.Fields.Lot != nil {
			return Serial{Kind: kind, Value: e.Fields.Lot.String(), Part: e.Part.Number}, true
		}
	}
	return Serial{}, false
}

// SerialValue returns the formatted serial or an empty string.
func (e Event) SerialValue() string {
	serial, ok := e.Serial()
	if !ok {
		return ""
	}
	return serial.Value
}

// SameUnit reports whether a and b name the same physical unit: equal
// formatted serial, part number, and production timestamp.
func SameUnit(a, b Event) bool {
	sa, okA := a.Serial()
	sb, okB := b.Serial()
	if !okA || !okB {
		return false
	}
	return sa.Value == sb.Value &&
		a.Part.Number == b.Part.Number &&
		a.ProducedAt.Equal(b.ProducedAt)
}
