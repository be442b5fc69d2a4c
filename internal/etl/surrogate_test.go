package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHashKeyFixedVectors(t *testing.T) {
	// Keys are part of the data contract: files exported by earlier runs
	// reference them, so the derivation can never change.
	vectors := map[string]int64{
		"FoodAcme Corp":       107067071346025,
		"debitUSDcard":        254196698804193,
		"ShoppingAmazon":      158373717411426,
		"purchaseEURtransfer": 9277828859642,
		"TransportUber":       102365303923174,
		"":                    233223382208256,
	}

	for input, want := range vectors {
		assert.Equal(t, want, HashKey(input), "input %q", input)
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	a := HashKey("ShoppingeBay")
	b := HashKey("ShoppingeBay")
	assert.Equal(t, a, b)
	assert.Equal(t, int64(251711541995490), a)
}

func TestHashKeyRange(t *testing.T) {
	// 12 hex digits = 48 bits.
	for _, input := range []string{"", "a", "Shopping", "debitUSDcard", "x y z"} {
		key := HashKey(input)
		assert.GreaterOrEqual(t, key, int64(0), "input %q", input)
		assert.Less(t, key, int64(1)<<48, "input %q", input)
	}
}

func TestCategoryKeyConcatOrder(t *testing.T) {
	assert.Equal(t, HashKey("FoodAcme Corp"), CategoryKey("Food", "Acme Corp"))
	// Order matters: swapping the fields produces a different key.
	assert.NotEqual(t, CategoryKey("Food", "Acme Corp"), CategoryKey("Acme Corp", "Food"))
}

func TestPaymentKeyConcatOrder(t *testing.T) {
	assert.Equal(t, HashKey("debitUSDcard"), PaymentKey("debit", "USD", "card"))
	assert.NotEqual(t, PaymentKey("debit", "USD", "card"), PaymentKey("card", "USD", "debit"))
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2025, time.January, 15, 14, 7, 33, 0, time.UTC)
	// Seconds are dropped, not rounded.
	assert.Equal(t, int64(202501151407), DateKey(ts))

	midnight := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(202412310000), DateKey(midnight))
}

func TestDateRow(t *testing.T) {
	ts := time.Date(2025, time.January, 15, 14, 7, 33, 0, time.UTC)
	d := DateRow(ts)

	assert.Equal(t, int64(202501151407), d.DateID)
	assert.Equal(t, 2025, d.Year)
	assert.Equal(t, 1, d.Quarter)
	assert.Equal(t, 1, d.Month)
	assert.Equal(t, "Wednesday", d.Weekday)
	assert.Equal(t, 15, d.Day)
	assert.Equal(t, 14, d.Hour)
	assert.Equal(t, 7, d.Minute)
}

func TestDateRowQuarters(t *testing.T) {
	cases := map[time.Month]int{
		time.January:  1,
		time.March:    1,
		time.April:    2,
		time.June:     2,
		time.July:     3,
		time.October:  4,
		time.December: 4,
	}
	for month, want := range cases {
		ts := time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, DateRow(ts).Quarter, "month %s", month)
	}
}
