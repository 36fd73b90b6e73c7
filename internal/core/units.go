package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a measurement unit for stock quantities.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "l"
	UnitMillilitre Unit = "ml"
	UnitPiece      Unit = "stk"
)

// Units lists every supported unit in display order.
var Units = []Unit{UnitKilogram, UnitGram, UnitLitre, UnitMillilitre, UnitPiece}

type unitPair struct {
	from Unit
	to   Unit
}

var conversionFactors = map[unitPair]decimal.Decimal{
	{UnitKilogram, UnitGram}:    decimal.NewFromInt(1000),
	{UnitGram, UnitKilogram}:    decimal.New(1, -3),
	{UnitLitre, UnitMillilitre}: decimal.NewFromInt(1000),
	{UnitMillilitre, UnitLitre}: decimal.New(1, -3),
}

// ParseUnit validates a unit code. Matching is case-insensitive.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", &ValidationError{Field: "unit", Message: fmt.Sprintf("unknown unit %q", s)}
	}
	return u, nil
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Convert converts q from one unit into another. Equal units pass through
// unchanged; kg/g and l/ml convert by fixed factors; any other pair is an
// *UnsupportedConversionError.
func Convert(q decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	if from == to {
		return q, nil
	}
	factor, ok := conversionFactors[unitPair{from, to}]
	if !ok {
		return decimal.Zero, &UnsupportedConversionError{From: from, To: to}
	}
	return q.Mul(factor), nil
}

// Convertible reports whether Convert accepts the pair.
func Convertible(from, to Unit) bool {
	if from == to {
		return true
	}
	_, ok := conversionFactors[unitPair{from, to}]
	return ok
}
