package models

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountConstruction(t *testing.T) {
	t.Run("from int64", func(t *testing.T) {
		assert.Equal(t, "42", NewAmount(42).String())
		assert.True(t, NewAmount(0).IsZero())
		assert.True(t, NewAmount(-5).IsZero(), "negative inputs clamp to zero")
	})

	t.Run("from big.Int copies the value", func(t *testing.T) {
		v := big.NewInt(100)
		a := NewAmountFromBig(v)
		v.SetInt64(999)
		assert.Equal(t, "100", a.String())
	})

	t.Run("from string", func(t *testing.T) {
		a, err := NewAmountFromString("1000000000000000000000")
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000000", a.String())

		_, err = NewAmountFromString("not-a-number")
		assert.Error(t, err)

		_, err = NewAmountFromString("-5")
		assert.Error(t, err)

		empty, err := NewAmountFromString("")
		require.NoError(t, err)
		assert.True(t, empty.IsZero())
	})

	t.Run("nil behaves as zero", func(t *testing.T) {
		var a *Amount
		assert.True(t, a.IsZero())
		assert.Equal(t, "0", a.String())
		assert.Equal(t, 0, a.Cmp(ZeroAmount()))
	})
}

func TestAmountArithmetic(t *testing.T) {
	t.Run("add and sub", func(t *testing.T) {
		a := NewAmount(100)
		b := NewAmount(30)
		assert.Equal(t, "130", a.Add(b).String())
		assert.Equal(t, "70", a.Sub(b).String())
	})

	t.Run("sub checked catches underflow", func(t *testing.T) {
		_, err := NewAmount(30).SubChecked(NewAmount(100))
		assert.Error(t, err)

		d, err := NewAmount(100).SubChecked(NewAmount(100))
		require.NoError(t, err)
		assert.True(t, d.IsZero())
	})

	t.Run("mul div floors", func(t *testing.T) {
		// 7 * 1 / 2 = 3.5 -> 3
		assert.Equal(t, "3", NewAmount(7).MulDiv(NewAmount(1), NewAmount(2)).String())
		// division by zero yields zero instead of panicking
		assert.True(t, NewAmount(7).MulDiv(NewAmount(1), ZeroAmount()).IsZero())
	})

	t.Run("release ratio at 256-bit scale", func(t *testing.T) {
		max, err := NewAmountFromString("1000000000000000000000") // 1000e18
		require.NoError(t, err)
		total, err := NewAmountFromString("10000000")
		require.NoError(t, err)
		distributable, err := NewAmountFromString("5000000")
		require.NoError(t, err)

		half := max.MulDiv(distributable, total)
		assert.Equal(t, "500000000000000000000", half.String())
	})
}

func TestAmountDatabaseRoundTrip(t *testing.T) {
	a, err := NewAmountFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)

	v, err := a.Value()
	require.NoError(t, err)

	var scanned Amount
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, 0, a.Cmp(&scanned))

	t.Run("nil value writes zero", func(t *testing.T) {
		var nilAmount *Amount
		v, err := nilAmount.Value()
		require.NoError(t, err)
		assert.Equal(t, "0", v)
	})

	t.Run("scan tolerates int64 and bytes", func(t *testing.T) {
		var b Amount
		require.NoError(t, b.Scan(int64(42)))
		assert.Equal(t, "42", b.String())
		require.NoError(t, b.Scan([]byte("777")))
		assert.Equal(t, "777", b.String())
		assert.Error(t, b.Scan(3.14))
	})
}

func TestAmountJSON(t *testing.T) {
	a := NewAmount(12345)
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"12345"`, string(data))

	var back Amount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 0, a.Cmp(&back))

	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &back))
}
