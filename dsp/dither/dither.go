package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution used for dither noise.
type Type int

const (
	// TypeNone applies no dither (plain rounding).
	TypeNone Type = iota
	// TypeRectangular uses a uniform PDF one LSB wide.
	TypeRectangular
	// TypeTriangular uses a triangular PDF two LSB wide.
	TypeTriangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rectangular", "triangular"}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known dither type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// ParseType resolves a dither name as printed by String. "tpdf" is
// accepted for TypeTriangular.
func ParseType(name string) (Type, error) {
	if strings.EqualFold(name, "tpdf") {
		return TypeTriangular, nil
	}
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(t), nil
		}
	}
	return TypeNone, fmt.Errorf("dither: unknown type %q", name)
}
