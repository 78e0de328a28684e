package jpt

import (
	"math/big"
	"regexp"
)

// ClaimValue is the closed set of disclosable value kinds: StringValue or
// NumberValue. The unexported marker keeps the set closed to this package.
type ClaimValue interface {
	claimValue()
}

// StringValue is a UTF-8 claim value. It is committed through hash-to-field.
type StringValue string

func (StringValue) claimValue() {}

// NumberValue is a non-fractional claim value committed as the integer itself.
type NumberValue struct {
	n *big.Int
}

func (NumberValue) claimValue() {}

// NewNumber creates a NumberValue from an int64.
func NewNumber(n int64) NumberValue {
	return NumberValue{n: big.NewInt(n)}
}

// NewBigNumber creates a NumberValue from a big integer. The input is copied.
func NewBigNumber(n *big.Int) NumberValue {
	if n == nil {
		return NumberValue{n: new(big.Int)}
	}
	return NumberValue{n: new(big.Int).Set(n)}
}

// Int returns a copy of the underlying integer.
func (v NumberValue) Int() *big.Int {
	if v.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.n)
}

// MarshalJSON encodes the value as a bare JSON number.
func (v NumberValue) MarshalJSON() ([]byte, error) {
	return []byte(v.Int().String()), nil
}

// Claim is a single (path, value) pair. Paths are opaque to issuance.
type Claim struct {
	Path  string
	Value ClaimValue
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ParseClaimValue interprets free-form input the way the issuance form does:
// a run of decimal digits becomes a NumberValue, anything else a StringValue.
func ParseClaimValue(text string) ClaimValue {
	if digitsOnly.MatchString(text) {
		n, ok := new(big.Int).SetString(text, 10)
		if ok {
			return NumberValue{n: n}
		}
	}
	return StringValue(text)
}
