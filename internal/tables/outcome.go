package tables

// Outcome is the result of an insertion attempt.
type Outcome int

const (
	Valid Outcome = iota
	DuplicateScan
	MissingPrevious
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case DuplicateScan:
		return "duplicate"
	case MissingPrevious:
		return "missing_previous"
	default:
		return "unknown"
	}
}
