package dataset

import (
	"strconv"
	"strings"
)

// Borough is the NYC Department of Finance borough code.
type Borough int

const (
	Manhattan Borough = iota + 1
	Bronx
	Brooklyn
	Queens
	StatenIsland
)

func (b Borough) String() string {
	switch b {
	case Manhattan:
		return "Manhattan"
	case Bronx:
		return "Bronx"
	case Brooklyn:
		return "Brooklyn"
	case Queens:
		return "Queens"
	case StatenIsland:
		return "Staten Island"
	default:
		return "Borough(" + strconv.Itoa(int(b)) + ")"
	}
}

// Matches reports whether a BOROUGH cell holds this code. The comparison is
// numeric so "1" and "1.0" both select Manhattan.
func (b Borough) Matches(cell string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	return err == nil && v == float64(b)
}
