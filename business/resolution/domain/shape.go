package domain

import (
	"fmt"
	"math/big"
)

// Shape is the resolution rule of a market. The set of shapes is closed:
// Categorical, MultiCategorical, Scalar and MultiScalar.
type Shape interface {
	// Slots is the condition's outcome slot count, invalid slot included.
	Slots() uint64
	// Questions is the number of oracle answers the shape consumes.
	Questions() int
	fmt.Stringer
	shape()
}

// Categorical markets pay the single selected outcome.
type Categorical struct {
	Outcomes int
}

// MultiCategorical markets pay every outcome selected in the answer bitmask.
type MultiCategorical struct {
	Outcomes int
}

// Scalar markets split between down and up linearly inside [Lower, Upper].
type Scalar struct {
	Lower *big.Int
	Upper *big.Int
}

// MultiScalar markets read one uint answer per outcome and pay them
// proportionally.
type MultiScalar struct {
	Outcomes int
}

func (Categorical) shape()      {}
func (MultiCategorical) shape() {}
func (Scalar) shape()           {}
func (MultiScalar) shape()      {}

func (s Categorical) Slots() uint64      { return uint64(s.Outcomes) + 1 }
func (s MultiCategorical) Slots() uint64 { return uint64(s.Outcomes) + 1 }
func (s Scalar) Slots() uint64           { return 3 }
func (s MultiScalar) Slots() uint64      { return uint64(s.Outcomes) + 1 }

func (Categorical) Questions() int      { return 1 }
func (MultiCategorical) Questions() int { return 1 }
func (Scalar) Questions() int           { return 1 }
func (s MultiScalar) Questions() int    { return s.Outcomes }

func (s Categorical) String() string      { return fmt.Sprintf("categorical(%d)", s.Outcomes) }
func (s MultiCategorical) String() string { return fmt.Sprintf("multi_categorical(%d)", s.Outcomes) }
func (s Scalar) String() string           { return fmt.Sprintf("scalar[%s,%s]", s.Lower, s.Upper) }
func (s MultiScalar) String() string      { return fmt.Sprintf("multi_scalar(%d)", s.Outcomes) }

// Kind names a shape for storage and configuration.
type Kind string

const (
	KindCategorical      Kind = "categorical"
	KindMultiCategorical Kind = "multi_categorical"
	KindScalar           Kind = "scalar"
	KindMultiScalar      Kind = "multi_scalar"
)

// KindOf returns the kind of s.
func KindOf(s Shape) Kind {
	switch s.(type) {
	case Categorical:
		return KindCategorical
	case MultiCategorical:
		return KindMultiCategorical
	case Scalar:
		return KindScalar
	case MultiScalar:
		return KindMultiScalar
	default:
		return ""
	}
}

// NewShape builds a shape from its stored form. Bounds are only read for
// scalar markets.
func NewShape(kind Kind, outcomes int, lower, upper *big.Int) (Shape, error) {
	var s Shape
	switch kind {
	case KindCategorical:
		s = Categorical{Outcomes: outcomes}
	case KindMultiCategorical:
		s = MultiCategorical{Outcomes: outcomes}
	case KindScalar:
		s = Scalar{Lower: lower, Upper: upper}
	case KindMultiScalar:
		s = MultiScalar{Outcomes: outcomes}
	default:
		return nil, unknownShape(kind)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// TemplateID returns the Reality.eth template used for the shape's questions.
func TemplateID(s Shape) uint32 {
	switch s.(type) {
	case Categorical:
		return TemplateSingleSelect
	case MultiCategorical:
		return TemplateMultipleSelect
	default:
		return TemplateUint
	}
}
