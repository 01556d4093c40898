// Package decimal holds amounts denominated in SOL, the ledger's major unit,
// and converts them to lamports, its minor unit.
package decimal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	shopspring "github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// Number of decimal places between SOL and lamports
	LamportsExponent = 9
	LamportsPerSol   = 1_000_000_000
)

var (
	ErrNegativeAmount = errors.New("negative amount")
	ErrAmountOverflow = errors.New("amount overflows lamports")
	ErrMissingAmount  = errors.New("missing amount")
)

var maxLamports = shopspring.NewFromUint64(math.MaxUint64)

type Decimal struct {
	Value shopspring.Decimal
	// False until a value was assigned or decoded
	set bool
}

func New(s string) (d Decimal, err error) {
	err = d.FromString(s)
	return d, err
}

// Must is New for literals known to be valid
func Must(s string) (d Decimal) {
	d, err := New(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromUint64 sets the value from an amount of lamports
func (d *Decimal) FromUint64(v uint64) {
	d.Value = shopspring.NewFromUint64(v).Shift(-LamportsExponent)
	d.set = true
}

// Valid reports whether the amount was ever assigned
func (d Decimal) Valid() (valid bool) {
	return d.set
}

// ToUint64 converts to lamports using round(amount * 10^9)
func (d Decimal) ToUint64() (v uint64, err error) {
	if !d.set {
		return 0, ErrMissingAmount
	}
	lamports := d.Value.Shift(LamportsExponent).Round(0)
	if lamports.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrNegativeAmount, d.Value)
	}
	if lamports.GreaterThan(maxLamports) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, d.Value)
	}
	return lamports.BigInt().Uint64(), nil
}

func (d *Decimal) FromString(s string) (err error) {
	d.Value, err = shopspring.NewFromString(s)
	if err != nil {
		return fmt.Errorf("failed to parse amount: %w", err)
	}
	d.set = true
	return nil
}

func (d Decimal) String() (s string) {
	return d.Value.String()
}

// StringFixed formats with exactly places decimals
func (d Decimal) StringFixed(places int32) (s string) {
	return d.Value.StringFixed(places)
}

func (d Decimal) Equal(o Decimal) (equal bool) {
	return d.Value.Equal(o.Value)
}

var (
	_ json.Unmarshaler = (*Decimal)(nil)
	_ json.Marshaler   = (*Decimal)(nil)
	_ yaml.Unmarshaler = (*Decimal)(nil)
	_ yaml.Marshaler   = (*Decimal)(nil)
)

// UnmarshalJSON accepts both quoted and bare numbers
func (d *Decimal) UnmarshalJSON(b []byte) (err error) {
	err = d.Value.UnmarshalJSON(b)
	if err != nil {
		return err
	}
	d.set = true
	return nil
}

func (d Decimal) MarshalJSON() (b []byte, err error) {
	return []byte("\"" + d.Value.String() + "\""), nil
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) (err error) {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expecting a scalar amount at line %d", value.Line)
	}
	return d.FromString(value.Value)
}

func (d Decimal) MarshalYAML() (v any, err error) {
	return d.Value.String(), nil
}
