package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikiP31/TransactionsPipeline/internal/models"
)

func testBatch(columns []string, rows ...models.Row) *models.Batch {
	return &models.Batch{
		Source:  "s3://datalake/silver/silver_test.parquet",
		Columns: columns,
		Rows:    rows,
	}
}

func TestExtractUsers(t *testing.T) {
	batch := testBatch(
		[]string{"user_id", "name", "street_address", "phone", "city", "country", "email"},
		models.Row{"user_id": "u-1", "name": "Ann", "street_address": "1 Main St", "phone": "555-0101", "city": "Oslo", "country": "NO", "email": "ann@example.com"},
		models.Row{"user_id": "u-2", "name": "Bob", "street_address": nil, "phone": nil, "city": "Riga", "country": "LV", "email": "bob@example.com"},
	)

	users := ExtractUsers(batch)
	require.Len(t, users, 2)

	assert.Equal(t, "u-1", users[0].UserID)
	assert.Equal(t, "Ann", users[0].Name)
	assert.Equal(t, "1 Main St", users[0].Address)
	assert.Equal(t, "555-0101", users[0].PhoneNumber)

	// Null attributes come through as empty, not as dropped rows.
	assert.Equal(t, "u-2", users[1].UserID)
	assert.Empty(t, users[1].Address)
	assert.Empty(t, users[1].PhoneNumber)
}

func TestExtractUsersDeduplicates(t *testing.T) {
	batch := testBatch(
		[]string{"user_id", "name"},
		models.Row{"user_id": "u-1", "name": "Ann"},
		models.Row{"user_id": "u-1", "name": "Ann Updated"},
		models.Row{"user_id": "u-2", "name": "Bob"},
	)

	users := ExtractUsers(batch)
	require.Len(t, users, 2)
	// First occurrence wins, same rule the warehouse applies across batches.
	assert.Equal(t, "Ann", users[0].Name)
}

func TestExtractUsersNullAndMissingKeys(t *testing.T) {
	batch := testBatch(
		[]string{"user_id", "name"},
		models.Row{"user_id": nil, "name": "Ghost"},
		models.Row{"user_id": "u-1", "name": "Ann"},
	)
	users := ExtractUsers(batch)
	require.Len(t, users, 1)
	assert.Equal(t, "u-1", users[0].UserID)

	// Column absent entirely: nil result, distinct from zero extracted rows.
	noColumn := testBatch([]string{"name"}, models.Row{"name": "Ann"})
	assert.Nil(t, ExtractUsers(noColumn))
}

func TestExtractUsersConformedColumnNames(t *testing.T) {
	batch := testBatch(
		[]string{"user_id", "address", "phone_number"},
		models.Row{"user_id": "u-1", "address": "2 High St", "phone_number": "555-0202"},
	)
	users := ExtractUsers(batch)
	require.Len(t, users, 1)
	assert.Equal(t, "2 High St", users[0].Address)
	assert.Equal(t, "555-0202", users[0].PhoneNumber)
}

func TestExtractCategories(t *testing.T) {
	batch := testBatch(
		[]string{"category", "merchant"},
		models.Row{"category": "Food", "merchant": "Acme Corp"},
		models.Row{"category": "Food", "merchant": "Acme Corp"},
		models.Row{"category": "Shopping", "merchant": "Amazon"},
		models.Row{"category": nil, "merchant": "Amazon"},
	)

	cats := ExtractCategories(batch)
	require.Len(t, cats, 2)

	assert.Equal(t, int64(107067071346025), cats[0].CategoryID)
	assert.Equal(t, "Food", cats[0].CategoryType)
	assert.Equal(t, "Acme Corp", cats[0].Merchant)
	assert.Equal(t, int64(158373717411426), cats[1].CategoryID)
}

func TestExtractCategoriesMissingColumn(t *testing.T) {
	// Both key columns are required; one alone is not enough.
	batch := testBatch([]string{"category"}, models.Row{"category": "Food"})
	assert.Nil(t, ExtractCategories(batch))
}

func TestExtractPayments(t *testing.T) {
	batch := testBatch(
		[]string{"transaction_type", "currency", "payment_method"},
		models.Row{"transaction_type": "debit", "currency": "USD", "payment_method": "card"},
		models.Row{"transaction_type": "purchase", "currency": "EUR", "payment_method": "transfer"},
		models.Row{"transaction_type": "debit", "currency": "USD", "payment_method": "card"},
		models.Row{"transaction_type": "debit", "currency": nil, "payment_method": "card"},
	)

	payments := ExtractPayments(batch)
	require.Len(t, payments, 2)

	assert.Equal(t, int64(254196698804193), payments[0].PaymentID)
	assert.Equal(t, "debit", payments[0].PaymentType)
	assert.Equal(t, "USD", payments[0].PaymentCurrency)
	assert.Equal(t, "card", payments[0].PaymentMethod)
	assert.Equal(t, int64(9277828859642), payments[1].PaymentID)
}

func TestExtractDates(t *testing.T) {
	batch := testBatch(
		[]string{"transaction_date"},
		models.Row{"transaction_date": "2025-01-15 14:07:33"},
		models.Row{"transaction_date": "2025-01-15 14:07:59"}, // same minute
		models.Row{"transaction_date": "2025-01-15 14:08:00"},
		models.Row{"transaction_date": nil},
	)

	dates := ExtractDates(batch)
	require.Len(t, dates, 2)

	assert.Equal(t, int64(202501151407), dates[0].DateID)
	assert.Equal(t, int64(202501151408), dates[1].DateID)
	assert.Equal(t, "Wednesday", dates[0].Weekday)
	assert.Equal(t, 1, dates[0].Quarter)
}

func TestExtractDatesUnparseable(t *testing.T) {
	batch := testBatch(
		[]string{"transaction_date"},
		models.Row{"transaction_date": "not a timestamp"},
		models.Row{"transaction_date": "2025-06-01T09:30:00"},
	)
	dates := ExtractDates(batch)
	require.Len(t, dates, 1)
	assert.Equal(t, int64(202506010930), dates[0].DateID)
}
