package value

import (
	"fmt"
	"math"
	"strconv"

	"github.com/stof-engine/stof/stoferr"
)

// Number is a scalar that is either an exact int64 or a float64, optionally
// carrying a Unit. Arithmetic between two numbers with units converts the
// right operand into the left operand's unit first (spec §4.2), following
// the canonical-base-unit strategy in units.go.
type Number struct {
	isInt bool
	i     int64
	f     float64
	unit  Unit
}

// IntNum constructs an integer Number with no unit.
func IntNum(i int64) Number { return Number{isInt: true, i: i} }

// FloatNum constructs a float Number with no unit.
func FloatNum(f float64) Number { return Number{f: f} }

// WithUnit returns a copy of n carrying unit u.
func (n Number) WithUnit(u Unit) Number { n.unit = u; return n }

// Unit returns n's unit (UnitNone if dimensionless).
func (n Number) Unit() Unit { return n.unit }

// IsInt reports whether n holds an exact integer.
func (n Number) IsInt() bool { return n.isInt }

// Int64 returns n truncated to an int64.
func (n Number) Int64() int64 {
	if n.isInt {
		return n.i
	}
	return int64(n.f)
}

// Float64 returns n widened to a float64.
func (n Number) Float64() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// IsZero reports whether n's numeric value is zero, regardless of unit.
func (n Number) IsZero() bool {
	if n.isInt {
		return n.i == 0
	}
	return n.f == 0
}

// String renders n followed by its unit abbreviation, if any.
func (n Number) String() string {
	var s string
	if n.isInt {
		s = strconv.FormatInt(n.i, 10)
	} else {
		s = strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	if u := n.unit.String(); u != "" {
		return s + u
	}
	return s
}

// CompareNumber orders two numbers by value after converting b into a's
// unit when both carry compatible units. Values with incompatible
// dimensions compare by dimension id, keeping Compare total.
func CompareNumber(a, b Number) int {
	bv := b.Float64()
	if a.unit.HasUnit() && b.unit.HasUnit() {
		if a.unit.Dimension() != b.unit.Dimension() {
			return cmpInt(int(a.unit.Dimension()), int(b.unit.Dimension()))
		}
		conv, ok := Convert(bv, b.unit, a.unit)
		if ok {
			bv = conv
		}
	}
	av := a.Float64()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// alignUnits converts b's numeric value into a's unit when both are real,
// compatible units. Returns the result unit to attach to the arithmetic
// output and the converted b value.
func alignUnits(a, b Number, scope string) (Unit, float64, error) {
	bv := b.Float64()
	if !a.unit.HasUnit() || !b.unit.HasUnit() {
		if a.unit.HasUnit() {
			return a.unit, bv, nil
		}
		return b.unit, bv, nil
	}
	if a.unit.Dimension() != b.unit.Dimension() {
		return UnitNone, 0, stoferr.New(stoferr.Type, scope, "incompatible unit dimensions").
			WithDetail("left", a.unit.String()).WithDetail("right", b.unit.String())
	}
	conv, ok := Convert(bv, b.unit, a.unit)
	if !ok {
		return UnitNone, 0, stoferr.New(stoferr.Type, scope, "cannot convert undefined unit")
	}
	return a.unit, conv, nil
}

// Add returns a + b, keeping exact integer arithmetic when both operands
// are integers and neither carries a unit; any unit makes the result a
// float.
func Add(a, b Number) (Number, error) {
	unit, bv, err := alignUnits(a, b, "Number.add")
	if err != nil {
		return Number{}, err
	}
	if a.isInt && b.isInt && !a.unit.HasUnit() && !b.unit.HasUnit() {
		return Number{isInt: true, i: a.i + b.i, unit: unit}, nil
	}
	return Number{f: a.Float64() + bv, unit: unit}, nil
}

// Sub returns a - b.
func Sub(a, b Number) (Number, error) {
	unit, bv, err := alignUnits(a, b, "Number.sub")
	if err != nil {
		return Number{}, err
	}
	if a.isInt && b.isInt && !a.unit.HasUnit() && !b.unit.HasUnit() {
		return Number{isInt: true, i: a.i - b.i, unit: unit}, nil
	}
	return Number{f: a.Float64() - bv, unit: unit}, nil
}

// Mul returns a * b. Unit-bearing multiplication keeps the left operand's
// unit, matching the engine's "units don't compose across multiply"
// simplification (spec Non-goals exclude dimensional analysis).
func Mul(a, b Number) (Number, error) {
	unit := a.unit
	if !unit.HasUnit() {
		unit = b.unit
	}
	if a.isInt && b.isInt {
		return Number{isInt: true, i: a.i * b.i, unit: unit}, nil
	}
	return Number{f: a.Float64() * b.Float64(), unit: unit}, nil
}

// Div returns a / b. Division by zero reports a Type error rather than
// producing Inf/NaN, since the engine treats arithmetic faults as
// recoverable script errors, not panics.
func Div(a, b Number) (Number, error) {
	if b.IsZero() {
		return Number{}, stoferr.New(stoferr.Type, "Number.div", "division by zero")
	}
	unit := a.unit
	if !unit.HasUnit() {
		unit = b.unit
	}
	if a.isInt && b.isInt && a.i%b.i == 0 {
		return Number{isInt: true, i: a.i / b.i, unit: unit}, nil
	}
	return Number{f: a.Float64() / b.Float64(), unit: unit}, nil
}

// Mod returns a % b under the same zero-divisor rule as Div.
func Mod(a, b Number) (Number, error) {
	if b.IsZero() {
		return Number{}, stoferr.New(stoferr.Type, "Number.rem", "modulo by zero")
	}
	if a.isInt && b.isInt {
		return Number{isInt: true, i: a.i % b.i, unit: a.unit}, nil
	}
	return Number{f: math.Mod(a.Float64(), b.Float64()), unit: a.unit}, nil
}

// Neg returns -n.
func Neg(n Number) Number {
	if n.isInt {
		return Number{isInt: true, i: -n.i, unit: n.unit}
	}
	return Number{f: -n.f, unit: n.unit}
}

// FormatError is returned by ParseNumber for malformed literals.
func parseNumberError(s string) error {
	return stoferr.New(stoferr.Format, "Number.parse", fmt.Sprintf("invalid numeric literal %q", s))
}

// ParseNumber parses a plain decimal or integer literal with an optional
// trailing unit abbreviation (e.g. "12.5km", "10s", "3").
func ParseNumber(s string) (Number, error) {
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || (s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
		i++
	}
	numPart, unitPart := s[:i], s[i:]
	if numPart == "" {
		return Number{}, parseNumberError(s)
	}
	var unit Unit
	if unitPart != "" {
		u, ok := ParseUnit(unitPart)
		if !ok {
			return Number{}, parseNumberError(s)
		}
		unit = u
	}
	if iv, err := strconv.ParseInt(numPart, 10, 64); err == nil {
		return Number{isInt: true, i: iv, unit: unit}, nil
	}
	fv, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return Number{}, parseNumberError(s)
	}
	return Number{f: fv, unit: unit}, nil
}
