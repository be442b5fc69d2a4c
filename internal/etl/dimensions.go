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

// Key columns per dimension: the fields a row must carry, non-null, to be
// extracted into that dimension. Silver files name user address/phone fields
// either way, so dim_user accepts both spellings.
var (
	userKeyColumns     = []string{"user_id"}
	categoryKeyColumns = []string{"category", "merchant"}
	paymentKeyColumns  = []string{"transaction_type", "currency", "payment_method"}
	dateKeyColumns     = []string{"transaction_date"}
)

// Upserter merges dimension rows from incoming batches into the warehouse.
// Inserts are conditional on the surrogate key: the first write for a key
// wins and later attempts are ignored, never applied as updates.
type Upserter struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewUpserter(sess *warehouse.Session, logger *logrus.Logger) *Upserter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Upserter{db: sess.DB(), logger: logger}
}

// UpsertAll runs every dimension step for one batch. A failing step is
// logged and aborts only itself: the remaining dimensions and the fact step
// still run for this batch.
func (u *Upserter) UpsertAll(ctx context.Context, batch *models.Batch) {
	steps := []struct {
		name string
		run  func(context.Context, *models.Batch) (int, error)
	}{
		{constants.TableDimUser, u.upsertUsers},
		{constants.TableDimCategory, u.upsertCategories},
		{constants.TableDimPayment, u.upsertPayments},
		{constants.TableDimDate, u.upsertDates},
	}

	for _, step := range steps {
		n, err := step.run(ctx, batch)
		if err != nil {
			u.logger.WithError(err).WithFields(logrus.Fields{
				"dimension": step.name,
				"source":    batch.Source,
			}).Warn("dimension upsert failed, continuing")
			continue
		}
		if n < 0 {
			// Step was a no-op because the batch lacks this dimension's columns.
			u.logger.WithFields(logrus.Fields{
				"dimension": step.name,
				"source":    batch.Source,
				"missing":   batch.MissingColumns(keyColumnsFor(step.name)...),
			}).Warn("required columns absent, skipping dimension for this batch")
			continue
		}
		u.logger.WithFields(logrus.Fields{
			"dimension": step.name,
			"rows":      n,
		}).Info("dimension upserted")
	}
}

func keyColumnsFor(dimension string) []string {
	switch dimension {
	case constants.TableDimUser:
		return userKeyColumns
	case constants.TableDimCategory:
		return categoryKeyColumns
	case constants.TableDimPayment:
		return paymentKeyColumns
	default:
		return dateKeyColumns
	}
}

// ExtractUsers pulls the distinct users present in a batch. Returns nil when
// the batch has no user_id column at all; rows with a null user_id are
// dropped. Attribute columns may be absent — those attributes stay empty.
func ExtractUsers(batch *models.Batch) []models.DimUser {
	if !batch.HasColumns(userKeyColumns...) {
		return nil
	}

	seen := make(map[string]struct{})
	users := make([]models.DimUser, 0)

	for _, row := range batch.Rows {
		id, ok := stringField(row, "user_id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		u := models.DimUser{UserID: id}
		u.Name, _ = stringField(row, "name")
		u.City, _ = stringField(row, "city")
		u.Country, _ = stringField(row, "country")
		u.Email, _ = stringField(row, "email")
		// Silver files use street_address/phone; accept the conformed
		// names as well.
		if v, ok := stringField(row, "street_address"); ok {
			u.Address = v
		} else {
			u.Address, _ = stringField(row, "address")
		}
		if v, ok := stringField(row, "phone"); ok {
			u.PhoneNumber = v
		} else {
			u.PhoneNumber, _ = stringField(row, "phone_number")
		}

		users = append(users, u)
	}

	return users
}

// ExtractCategories pulls distinct (category_type, merchant) pairs with
// their derived surrogate keys. First occurrence of a key wins within the
// batch, mirroring the warehouse's first-write-wins rule.
func ExtractCategories(batch *models.Batch) []models.DimCategory {
	if !batch.HasColumns(categoryKeyColumns...) {
		return nil
	}

	seen := make(map[int64]struct{})
	cats := make([]models.DimCategory, 0)

	for _, row := range batch.Rows {
		categoryType, ok1 := stringField(row, "category")
		merchant, ok2 := stringField(row, "merchant")
		if !ok1 || !ok2 {
			continue
		}

		id := CategoryKey(categoryType, merchant)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		cats = append(cats, models.DimCategory{
			CategoryID:   id,
			CategoryType: categoryType,
			Merchant:     merchant,
		})
	}

	return cats
}

// ExtractPayments pulls distinct (transaction_type, currency, payment_method)
// triples with derived surrogate keys.
func ExtractPayments(batch *models.Batch) []models.DimPayment {
	if !batch.HasColumns(paymentKeyColumns...) {
		return nil
	}

	seen := make(map[int64]struct{})
	payments := make([]models.DimPayment, 0)

	for _, row := range batch.Rows {
		paymentType, ok1 := stringField(row, "transaction_type")
		currency, ok2 := stringField(row, "currency")
		method, ok3 := stringField(row, "payment_method")
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		id := PaymentKey(paymentType, currency, method)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		payments = append(payments, models.DimPayment{
			PaymentID:       id,
			PaymentType:     paymentType,
			PaymentCurrency: currency,
			PaymentMethod:   method,
		})
	}

	return payments
}

// ExtractDates pulls the distinct minute-truncated transaction timestamps.
func ExtractDates(batch *models.Batch) []models.DimDate {
	if !batch.HasColumns(dateKeyColumns...) {
		return nil
	}

	seen := make(map[int64]struct{})
	dates := make([]models.DimDate, 0)

	for _, row := range batch.Rows {
		ts, ok := timeField(row, "transaction_date")
		if !ok {
			continue
		}

		d := DateRow(ts)
		if _, dup := seen[d.DateID]; dup {
			continue
		}
		seen[d.DateID] = struct{}{}

		dates = append(dates, d)
	}

	return dates
}

func (u *Upserter) upsertUsers(ctx context.Context, batch *models.Batch) (int, error) {
	users := ExtractUsers(batch)
	if users == nil {
		return -1, nil
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s
		(user_id, name, address, phone_number, city, country, email)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, constants.TableDimUser)

	for _, user := range users {
		if _, err := u.db.ExecContext(ctx, query,
			user.UserID, user.Name, user.Address, user.PhoneNumber,
			user.City, user.Country, user.Email,
		); err != nil {
			return 0, fmt.Errorf("failed to insert dim_user %s: %w", user.UserID, err)
		}
	}
	return len(users), nil
}

func (u *Upserter) upsertCategories(ctx context.Context, batch *models.Batch) (int, error) {
	cats := ExtractCategories(batch)
	if cats == nil {
		return -1, nil
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (category_id, category_type, merchant)
		VALUES (?, ?, ?)
	`, constants.TableDimCategory)

	for _, cat := range cats {
		if _, err := u.db.ExecContext(ctx, query,
			cat.CategoryID, cat.CategoryType, cat.Merchant,
		); err != nil {
			return 0, fmt.Errorf("failed to insert dim_category %d: %w", cat.CategoryID, err)
		}
	}
	return len(cats), nil
}

func (u *Upserter) upsertPayments(ctx context.Context, batch *models.Batch) (int, error) {
	payments := ExtractPayments(batch)
	if payments == nil {
		return -1, nil
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s
		(payment_id, payment_type, payment_currency, payment_method)
		VALUES (?, ?, ?, ?)
	`, constants.TableDimPayment)

	for _, p := range payments {
		if _, err := u.db.ExecContext(ctx, query,
			p.PaymentID, p.PaymentType, p.PaymentCurrency, p.PaymentMethod,
		); err != nil {
			return 0, fmt.Errorf("failed to insert dim_payment %d: %w", p.PaymentID, err)
		}
	}
	return len(payments), nil
}

func (u *Upserter) upsertDates(ctx context.Context, batch *models.Batch) (int, error) {
	dates := ExtractDates(batch)
	if dates == nil {
		return -1, nil
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s
		(date_id, year, quarter, month, weekday, day, hour, minute)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableDimDate)

	for _, d := range dates {
		if _, err := u.db.ExecContext(ctx, query,
			d.DateID, d.Year, d.Quarter, d.Month, d.Weekday, d.Day, d.Hour, d.Minute,
		); err != nil {
			return 0, fmt.Errorf("failed to insert dim_date %d: %w", d.DateID, err)
		}
	}
	return len(dates), nil
}
