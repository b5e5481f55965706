package domain

import "strconv"

// Percent is a course completion value in [0, 100] that may be unknown.
// Unknown means the course export had no data for the student; it is never
// collapsed to zero.
type Percent struct {
	Value float64
	Known bool
}

func KnownPercent(v float64) Percent {
	return Percent{Value: v, Known: true}
}

// String renders the value for CSV/spreadsheet cells. Unknown renders empty.
func (p Percent) String() string {
	if !p.Known {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}
