package scan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lotwatch/internal/catalog"
)

// TimestampLayout is the textual form of scan and production timestamps.
const TimestampLayout = "01/02/2006-15:04:05"

// JBKNumber identifies a basket. Rendered as three digits.
type JBKNumber int

func (n JBKNumber) String() string { return fmt.Sprintf("%03d", int(n)) }

// LotNumber identifies a production lot. Rendered as nine digits.
type LotNumber int

func (n LotNumber) String() string { return fmt.Sprintf("%09d", int(n)) }

// DieNumber identifies a casting die. Rendered as three digits.
type DieNumber int

func (n DieNumber) String() string { return fmt.Sprintf("%03d", int(n)) }

// HeatNumber identifies a material heat. Rendered as six digits.
type HeatNumber int

func (n HeatNumber) String() string { return fmt.Sprintf("%06d", int(n)) }

// ModelNumber is a free-form model designation.
type ModelNumber string

func (m ModelNumber) String() string { return string(m) }

// VariableFields holds the optional per-process fields. A nil pointer means
// the process does not require that field.
type VariableFields struct {
	JBK       *JBKNumber
	Lot       *LotNumber
	DeburrJBK *JBKNumber
	Die       *DieNumber
	Model     *ModelNumber
	Heat      *HeatNumber
}

// Values returns the present fields in declaration order.
func (v VariableFields) Values() []string {
	out := make([]string, 0, 6)
	if v.JBK != nil {
		out = append(out, v.JBK.String())
	}
	if v.Lot != nil {
		out = append(out, v.Lot.String())
	}
	if v.DeburrJBK != nil {
		out = append(out, v.DeburrJBK.String())
	}
	if v.Die != nil {
		out = append(out, v.Die.String())
	}
	if v.Model != nil {
		out = append(out, v.Model.String())
	}
	if v.Heat != nil {
		out = append(out, v.Heat.String())
	}
	return out
}

type numberSpec struct {
	field string
	max   int
}

var (
	jbkSpec       = numberSpec{field: "JBK number", max: 999}
	lotSpec       = numberSpec{field: "Lot number", max: 999_999_999}
	deburrJBKSpec = numberSpec{field: "Deburr JBK number", max: 999}
	dieSpec       = numberSpec{field: "Die number", max: 999}
	heatSpec      = numberSpec{field: "Heat number", max: 999_999}
)

func (s numberSpec) parse(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, formatErr(s.field, raw, "value is empty")
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, formatErr(s.field, raw, "must contain only digits")
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, formatErr(s.field, raw, "number out of range")
	}
	if n > s.max {
		return 0, formatErr(s.field, raw, fmt.Sprintf("must be at most %d", s.max))
	}
	return n, nil
}

// parseVariableFields consumes exactly required.Count() values in declaration order.
func parseVariableFields(required catalog.RequiredFields, values []string) (VariableFields, error) {
	var out VariableFields
	next := 0
	take := func() string {
		v := values[next]
		next++
		return v
	}
	if required.JBK {
		n, err := jbkSpec.parse(take())
		if err != nil {
			return VariableFields{}, err
		}
		v := JBKNumber(n)
		out.JBK = &v
	}
	if required.Lot {
		n, err := lotSpec.parse(take())
		if err != nil {
			return VariableFields{}, err
		}
		v := LotNumber(n)
		out.Lot = &v
	}
	if required.DeburrJBK {
		n, err := deburrJBKSpec.parse(take())
		if err != nil {
			return VariableFields{}, err
		}
		v := JBKNumber(n)
		out.DeburrJBK = &v
	}
	if required.Die {
		n, err := dieSpec.parse(take())
		if err != nil {
			return VariableFields{}, err
		}
		v := DieNumber(n)
		out.Die = &v
	}
	if required.Model {
		raw := take()
		model := strings.TrimSpace(raw)
		if model == "" {
			return VariableFields{}, formatErr("Model number", raw, "value is empty")
		}
		if strings.Contains(model, ":") {
			return VariableFields{}, formatErr("Model number", raw, "must not contain ':'")
		}
		v := ModelNumber(model)
		out.Model = &v
	}
	if required.Heat {
		n, err := heatSpec.parse(take())
		if err != nil {
			return VariableFields{}, err
		}
		v := HeatNumber(n)
		out.Heat = &v
	}
	return out, nil
}

// Shift is a production shift, 1 through 3.
type Shift int

func (s Shift) String() string { return strconv.Itoa(int(s)) }

// DataSet is one (quantity, shift, operator) contribution to a basket.
type DataSet struct {
	Quantity int
	Shift    Shift
	Operator string
}

func parseDataSets(quantityRaw, shiftRaw, operatorRaw string) (DataSet, []DataSet, error) {
	quantities := strings.Split(quantityRaw, ":")
	shifts := strings.Split(shiftRaw, ":")
	operators := strings.Split(operatorRaw, ":")
	if len(quantities) > 3 {
		return DataSet{}, nil, formatErr("Quantity", quantityRaw, "at most three split values are allowed")
	}
	if len(shifts) != len(quantities) {
		return DataSet{}, nil, formatErr("Shift", shiftRaw, fmt.Sprintf("expected %d values to match quantity", len(quantities)))
	}
	if len(operators) != len(quantities) {
		return DataSet{}, nil, formatErr("Operator", operatorRaw, fmt.Sprintf("expected %d values to match quantity", len(quantities)))
	}

	sets := make([]DataSet, 0, len(quantities))
	for i := range quantities {
		set, err := parseDataSet(quantities[i], shifts[i], operators[i])
		if err != nil {
			return DataSet{}, nil, err
		}
		sets = append(sets, set)
	}
	var partials []DataSet
	if len(sets) > 1 {
		partials = sets[1:]
	}
	return sets[0], partials, nil
}

func parseDataSet(quantityRaw, shiftRaw, operatorRaw string) (DataSet, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(quantityRaw))
	if err != nil {
		return DataSet{}, formatErr("Quantity", quantityRaw, "must be an integer")
	}
	if qty < 1 {
		return DataSet{}, formatErr("Quantity", quantityRaw, "must be at least 1")
	}
	shift, err := strconv.Atoi(strings.TrimSpace(shiftRaw))
	if err != nil || shift < 1 || shift > 3 {
		return DataSet{}, formatErr("Shift", shiftRaw, "must be 1, 2, or 3")
	}
	operator := strings.TrimSpace(operatorRaw)
	if operator == "" {
		return DataSet{}, formatErr("Operator", operatorRaw, "value is empty")
	}
	return DataSet{Quantity: qty, Shift: Shift(shift), Operator: operator}, nil
}

// parseTimestamp reads a zone-less wall-clock stamp. Stamps are held in UTC so
// every written time exists and day arithmetic ignores daylight saving.
func parseTimestamp(field, raw string) (time.Time, error) {
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, formatErr(field, raw, "expected MM/dd/yyyy-HH:mm:ss")
	}
	return ts, nil
}

// FormatTimestamp renders ts in the table and inbox layout.
func FormatTimestamp(ts time.Time) string {
	return ts.Format(TimestampLayout)
}
