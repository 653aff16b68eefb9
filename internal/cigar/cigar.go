// Package cigar validates and tokenizes CIGAR alignment strings.
package cigar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/biogo/hts/sam"
	"go.uber.org/multierr"
)

// Validation errors. A string that breaks several rules reports all of them,
// so errors.Is matches each kind present.
var (
	ErrMalformedInput       = errors.New("malformed CIGAR string")
	ErrUnsupportedOperation = errors.New("unsupported CIGAR operation")
	ErrInvalidOperation     = errors.New("invalid CIGAR operation")
)

// Kind groups CIGAR operators by how they move through local and reference coordinates.
type Kind int

const (
	KindMatch     Kind = iota // M, =, X
	KindGap                   // D, N
	KindInsertion             // I
	KindClip                  // S, H, P (recognized, not supported)
)

// reToken accepts any single non-digit character as the operator so that
// unknown operators can be told apart from text that does not tokenize at all.
var reToken = regexp.MustCompile(`(\d+)(\D)`)

// opTypes is the full operator alphabet accepted by the tokenizer.
var opTypes = map[string]sam.CigarOpType{
	"M": sam.CigarMatch,
	"I": sam.CigarInsertion,
	"D": sam.CigarDeletion,
	"N": sam.CigarSkipped,
	"S": sam.CigarSoftClipped,
	"H": sam.CigarHardClipped,
	"P": sam.CigarPadded,
	"=": sam.CigarEqual,
	"X": sam.CigarMismatch,
}

// Op is a single validated CIGAR operation.
type Op struct {
	Len  int
	Type sam.CigarOpType
}

// Kind returns the coordinate behaviour of the operation.
func (o Op) Kind() Kind {
	switch o.Type {
	case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
		return KindMatch
	case sam.CigarDeletion, sam.CigarSkipped:
		return KindGap
	case sam.CigarInsertion:
		return KindInsertion
	default:
		return KindClip
	}
}

// String returns the operation in CIGAR notation, e.g. "8M".
func (o Op) String() string {
	return strconv.Itoa(o.Len) + o.Type.String()
}

// Verify checks a CIGAR string and returns it unchanged when it is valid.
func Verify(cigar string) (string, error) {
	if _, err := Parse(cigar); err != nil {
		return "", err
	}
	return cigar, nil
}

// Parse validates a CIGAR string and returns its operations in order.
//
// The string must be fully covered by <length><operator> tokens. Clipping
// operators fail with ErrUnsupportedOperation and characters outside the
// CIGAR alphabet fail with ErrInvalidOperation.
func Parse(cigar string) ([]Op, error) {
	if cigar == "" {
		return nil, fmt.Errorf("%w: empty string", ErrMalformedInput)
	}

	var (
		malformed, opErrs error
		next              int
	)
	matches := reToken.FindAllStringSubmatchIndex(cigar, -1)
	ops := make([]Op, 0, len(matches))
	for _, m := range matches {
		if m[0] != next {
			malformed = multierr.Append(malformed,
				fmt.Errorf("%w: unparsed %q at offset %d", ErrMalformedInput, cigar[next:m[0]], next))
		}
		next = m[1]

		digits, op := cigar[m[2]:m[3]], cigar[m[4]:m[5]]
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			malformed = multierr.Append(malformed,
				fmt.Errorf("%w: bad length %q at offset %d", ErrMalformedInput, digits, m[2]))
			continue
		}

		typ, ok := opTypes[op]
		if !ok {
			opErrs = multierr.Append(opErrs,
				fmt.Errorf("%w: %q at offset %d", ErrInvalidOperation, op, m[4]))
			continue
		}
		o := Op{Len: n, Type: typ}
		if o.Kind() == KindClip {
			opErrs = multierr.Append(opErrs,
				fmt.Errorf("%w: %s at offset %d", ErrUnsupportedOperation, o, m[2]))
			continue
		}
		ops = append(ops, o)
	}
	if next != len(cigar) {
		malformed = multierr.Append(malformed,
			fmt.Errorf("%w: unparsed %q at offset %d", ErrMalformedInput, cigar[next:], next))
	}

	if err := multierr.Combine(malformed, opErrs); err != nil {
		return nil, err
	}
	return ops, nil
}

// Lengths returns the number of reference and local bases described by ops.
func Lengths(ops []Op) (ref, local int) {
	for _, o := range ops {
		switch o.Kind() {
		case KindMatch:
			ref += o.Len
			local += o.Len
		case KindGap:
			ref += o.Len
		case KindInsertion:
			local += o.Len
		}
	}
	return ref, local
}

// String joins ops back into CIGAR notation.
func String(ops []Op) string {
	var b []byte
	for _, o := range ops {
		b = strconv.AppendInt(b, int64(o.Len), 10)
		b = append(b, o.Type.String()...)
	}
	return string(b)
}
