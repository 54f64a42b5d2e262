package dataset

import (
	"strconv"
	"strings"
)

// Sentinel recognises the marker a column uses for "no value".
type Sentinel interface {
	Matches(cell string) bool
	String() string
}

// MissingText matches cells equal to the marker byte for byte, spaces included.
type MissingText string

func (s MissingText) Matches(cell string) bool { return cell == string(s) }

func (s MissingText) String() string { return strconv.Quote(string(s)) }

// MissingNumber matches cells that parse as a number equal to the marker,
// so "0", "0.0" and " 0 " all count as zero. Non-numeric cells never match.
type MissingNumber float64

func (s MissingNumber) Matches(cell string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	return err == nil && v == float64(s)
}

func (s MissingNumber) String() string {
	return strconv.FormatFloat(float64(s), 'g', -1, 64)
}

// Markers used by the NYC rolling sales file.
var (
	// DashMarker is what the file holds for an unknown price or square footage.
	DashMarker Sentinel = MissingText(" -  ")
	// ZeroMarker is what the file holds for an unknown year built or ZIP code.
	ZeroMarker Sentinel = MissingNumber(0)
)
