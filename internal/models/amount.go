package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
)

// Amount is an unsigned token amount in base units. It is stored as a
// decimal string so 256-bit values survive the round trip through the
// database without truncation.
type Amount struct {
	value big.Int
}

// NewAmount creates an Amount from an int64. Negative inputs are clamped
// to zero, amounts are unsigned by definition.
func NewAmount(v int64) *Amount {
	a := &Amount{}
	if v > 0 {
		a.value.SetInt64(v)
	}
	return a
}

// NewAmountFromBig copies v into a new Amount.
func NewAmountFromBig(v *big.Int) *Amount {
	a := &Amount{}
	if v != nil && v.Sign() > 0 {
		a.value.Set(v)
	}
	return a
}

// NewAmountFromString parses a decimal string into an Amount.
func NewAmountFromString(s string) (*Amount, error) {
	a := &Amount{}
	if s == "" {
		return a, nil
	}
	if _, ok := a.value.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if a.value.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}

// ZeroAmount returns a fresh zero-valued Amount.
func ZeroAmount() *Amount {
	return &Amount{}
}

func (a *Amount) BigInt() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&a.value)
}

func (a *Amount) String() string {
	if a == nil {
		return "0"
	}
	return a.value.String()
}

func (a *Amount) IsZero() bool {
	return a == nil || a.value.Sign() == 0
}

// Cmp returns -1, 0 or 1 comparing a against b. Nil compares as zero.
func (a *Amount) Cmp(b *Amount) int {
	return a.BigInt().Cmp(b.BigInt())
}

// Add returns a + b as a new Amount.
func (a *Amount) Add(b *Amount) *Amount {
	return NewAmountFromBig(new(big.Int).Add(a.BigInt(), b.BigInt()))
}

// Sub returns a - b as a new Amount. The result must not be negative.
func (a *Amount) Sub(b *Amount) *Amount {
	diff := new(big.Int).Sub(a.BigInt(), b.BigInt())
	return NewAmountFromBig(diff)
}

// SubChecked returns a - b, or an error when the result would be negative.
func (a *Amount) SubChecked(b *Amount) (*Amount, error) {
	diff := new(big.Int).Sub(a.BigInt(), b.BigInt())
	if diff.Sign() < 0 {
		return nil, fmt.Errorf("amount underflow: %s - %s", a, b)
	}
	return NewAmountFromBig(diff), nil
}

// MulDiv returns floor(a * num / den). Integer division truncates, which is
// what the incremental release ratio arithmetic relies on.
func (a *Amount) MulDiv(num, den *Amount) *Amount {
	if den.IsZero() {
		return ZeroAmount()
	}
	product := new(big.Int).Mul(a.BigInt(), num.BigInt())
	return NewAmountFromBig(product.Div(product, den.BigInt()))
}

// Value implements the driver.Valuer interface.
func (a *Amount) Value() (driver.Value, error) {
	if a == nil {
		return "0", nil
	}
	return a.value.String(), nil
}

// Scan implements the sql.Scanner interface.
func (a *Amount) Scan(value interface{}) error {
	if value == nil {
		a.value.SetInt64(0)
		return nil
	}

	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		a.value.SetInt64(v)
		return nil
	default:
		return errors.New("unsupported amount column type")
	}

	if s == "" {
		a.value.SetInt64(0)
		return nil
	}
	if _, ok := a.value.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount column value %q", s)
	}
	return nil
}

// MarshalJSON renders the amount as a JSON string to avoid float precision
// loss in clients.
func (a *Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" || s == "" {
		a.value.SetInt64(0)
		return nil
	}
	if _, ok := a.value.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	if a.value.Sign() < 0 {
		return fmt.Errorf("negative amount %q", s)
	}
	return nil
}
