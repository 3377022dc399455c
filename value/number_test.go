package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/value"
)

func TestUnitConversionLength(t *testing.T) {
	mm, ok := value.Convert(1, value.Meters, value.Millimeters)
	require.True(t, ok)
	assert.InDelta(t, 1000, mm, 1e-9)

	km, ok := value.Convert(1500, value.Meters, value.Kilometers)
	require.True(t, ok)
	assert.InDelta(t, 1.5, km, 1e-9)
}

func TestUnitConversionTemperature(t *testing.T) {
	f, ok := value.Convert(0, value.Celsius, value.Fahrenheit)
	require.True(t, ok)
	assert.InDelta(t, 32, f, 1e-9)

	c, ok := value.Convert(212, value.Fahrenheit, value.Celsius)
	require.True(t, ok)
	assert.InDelta(t, 100, c, 1e-9)
}

func TestUnitConversionRejectsUndefinedAndCrossDimension(t *testing.T) {
	_, ok := value.Convert(1, value.UnitUndefined, value.Meters)
	assert.False(t, ok)

	_, ok = value.Convert(1, value.Meters, value.Seconds)
	assert.False(t, ok)
}

func TestNumberArithmeticConvertsRightOperand(t *testing.T) {
	a := value.FloatNum(1).WithUnit(value.Meters)
	b := value.FloatNum(50).WithUnit(value.Centimeters)
	sum, err := value.Add(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, sum.Float64(), 1e-9)
	assert.Equal(t, value.Meters, sum.Unit())
}

func TestNumberArithmeticIntegerStaysExact(t *testing.T) {
	sum, err := value.Add(value.IntNum(2), value.IntNum(3))
	require.NoError(t, err)
	assert.True(t, sum.IsInt())
	assert.EqualValues(t, 5, sum.Int64())
}

func TestNumberDivisionByZero(t *testing.T) {
	_, err := value.Div(value.IntNum(1), value.IntNum(0))
	assert.Error(t, err)
}

func TestNumberIncompatibleDimensions(t *testing.T) {
	a := value.FloatNum(1).WithUnit(value.Meters)
	b := value.FloatNum(1).WithUnit(value.Seconds)
	_, err := value.Add(a, b)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	n, err := value.ParseNumber("12.5km")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, n.Float64(), 1e-9)
	assert.Equal(t, value.Kilometers, n.Unit())

	_, err = value.ParseNumber("not-a-number")
	assert.Error(t, err)
}
