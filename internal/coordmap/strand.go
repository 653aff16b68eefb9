package coordmap

import "fmt"

// Strand is the orientation of a transcript relative to the reference.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

// ParseStrand accepts "+", "1", "+1" for the forward strand and "-", "-1" for the reverse strand.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+", "1", "+1":
		return Forward, nil
	case "-", "-1":
		return Reverse, nil
	}
	return 0, fmt.Errorf("unknown strand %q", s)
}

// String returns "+" or "-".
func (s Strand) String() string {
	switch s {
	case Forward:
		return "+"
	case Reverse:
		return "-"
	}
	return "?"
}
