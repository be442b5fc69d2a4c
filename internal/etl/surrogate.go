package etl

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/NikiP31/TransactionsPipeline/internal/models"
)

// hashKeyHexLen is the number of leading hex digits of the md5 digest that
// form a surrogate key: 12 digits = 48 bits, well inside int64 range.
const hashKeyHexLen = 12

// HashKey derives a surrogate key from a natural-key string. It is a pure
// function of its input: no salt, no process state, so the same natural key
// maps to the same surrogate key across batches, runs and languages.
//
// Collisions between distinct natural keys are possible (48-bit space) and
// are a known, accepted limitation: they are neither detected nor resolved.
func HashKey(naturalKey string) int64 {
	sum := md5.Sum([]byte(naturalKey))
	prefix := hex.EncodeToString(sum[:])[:hashKeyHexLen]
	// Cannot fail: prefix is always 12 hex digits.
	v, _ := strconv.ParseInt(prefix, 16, 64)
	return v
}

// CategoryKey derives the dim_category surrogate key. Field order is part of
// the contract: category_type first, then merchant, no separator.
func CategoryKey(categoryType, merchant string) int64 {
	return HashKey(categoryType + merchant)
}

// PaymentKey derives the dim_payment surrogate key from the
// (payment_type, currency, method) triple, in that order.
func PaymentKey(paymentType, currency, method string) int64 {
	return HashKey(paymentType + currency + method)
}

// DateKey derives the dim_date surrogate key: the timestamp truncated to the
// minute and written as YYYYMMDDHHMM. Not hashed — the key doubles as a
// human-readable date code.
func DateKey(ts time.Time) int64 {
	v, _ := strconv.ParseInt(ts.Format("200601021504"), 10, 64)
	return v
}

// DateRow expands a timestamp into the full dim_date row. Every attribute is
// a function of the minute-truncated timestamp, so it can never disagree with
// the key.
func DateRow(ts time.Time) models.DimDate {
	return models.DimDate{
		DateID:  DateKey(ts),
		Year:    ts.Year(),
		Quarter: (int(ts.Month())-1)/3 + 1,
		Month:   int(ts.Month()),
		Weekday: ts.Weekday().String(),
		Day:     ts.Day(),
		Hour:    ts.Hour(),
		Minute:  ts.Minute(),
	}
}
