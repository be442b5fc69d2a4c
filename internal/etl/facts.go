package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/models"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// factKeyColumns are the two fields a source row cannot be a transaction
// without. Everything else degrades to a null foreign key.
var factKeyColumns = []string{"transaction_id", "amount"}

// FactResolver turns source rows into transaction_fact rows. Foreign keys
// are recomputed with the exact same derivations the dimension extractors
// use, so a fact and the dimension row built from the same source fields
// always agree on the key.
type FactResolver struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewFactResolver(sess *warehouse.Session, logger *logrus.Logger) *FactResolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &FactResolver{db: sess.DB(), logger: logger}
}

// ResolveFacts builds the fact rows for a batch. Returns nil when the batch
// lacks the transaction_id or amount column entirely. Rows missing either
// value are excluded; each foreign key is null when its source fields are
// absent from the schema or null in the row — the same rows the dimension
// extractors exclude, which keeps facts and dimensions consistent.
func ResolveFacts(batch *models.Batch) []models.TransactionFact {
	if !batch.HasColumns(factKeyColumns...) {
		return nil
	}

	hasCategory := batch.HasColumns(categoryKeyColumns...)
	hasPayment := batch.HasColumns(paymentKeyColumns...)
	hasDate := batch.HasColumns(dateKeyColumns...)
	hasUser := batch.HasColumns(userKeyColumns...)

	facts := make([]models.TransactionFact, 0, len(batch.Rows))

	for _, row := range batch.Rows {
		id, ok := stringField(row, "transaction_id")
		if !ok {
			continue
		}
		amount, ok := floatField(row, "amount")
		if !ok {
			continue
		}

		fact := models.TransactionFact{TransactionID: id, Amount: amount}

		if hasCategory {
			if categoryType, ok1 := stringField(row, "category"); ok1 {
				if merchant, ok2 := stringField(row, "merchant"); ok2 {
					key := CategoryKey(categoryType, merchant)
					fact.CategoryID = &key
				}
			}
		}
		if hasPayment {
			paymentType, ok1 := stringField(row, "transaction_type")
			currency, ok2 := stringField(row, "currency")
			method, ok3 := stringField(row, "payment_method")
			if ok1 && ok2 && ok3 {
				key := PaymentKey(paymentType, currency, method)
				fact.PaymentID = &key
			}
		}
		if hasDate {
			if ts, ok := timeField(row, "transaction_date"); ok {
				key := DateKey(ts)
				fact.DateID = &key
			}
		}
		if hasUser {
			if userID, ok := stringField(row, "user_id"); ok {
				fact.UserID = &userID
			}
		}

		facts = append(facts, fact)
	}

	return facts
}

// Insert writes the batch's fact rows. Duplicate transaction ids — within
// the batch or from earlier batches — are silently ignored, so the first
// successfully inserted amount for an id is the one that stays.
func (r *FactResolver) Insert(ctx context.Context, batch *models.Batch) (int, error) {
	facts := ResolveFacts(batch)
	if facts == nil {
		r.logger.WithFields(logrus.Fields{
			"source":  batch.Source,
			"missing": batch.MissingColumns(factKeyColumns...),
		}).Warn("not enough columns to populate fact table, skipping")
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s
		(transaction_id, category_id, date_id, user_id, payment_id, transaction_amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`, constants.TableTransactionFact)

	for _, fact := range facts {
		if _, err := r.db.ExecContext(ctx, query,
			fact.TransactionID,
			nullableInt(fact.CategoryID),
			nullableInt(fact.DateID),
			nullableString(fact.UserID),
			nullableInt(fact.PaymentID),
			fact.Amount,
		); err != nil {
			return 0, fmt.Errorf("failed to insert fact %s: %w", fact.TransactionID, err)
		}
	}

	return len(facts), nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
