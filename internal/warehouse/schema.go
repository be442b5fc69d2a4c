package warehouse

import (
	"context"
	"fmt"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
)

// Star schema DDL. PRIMARY KEYs are what make INSERT OR IGNORE a conditional
// insert, so every table declares one on its surrogate/natural key.
var createTableStatements = []string{
	fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id VARCHAR PRIMARY KEY,
			name VARCHAR,
			address VARCHAR,
			phone_number VARCHAR,
			city VARCHAR,
			country VARCHAR,
			email VARCHAR
		)`, constants.TableDimUser),
	fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			category_id BIGINT PRIMARY KEY,
			category_type VARCHAR,
			merchant VARCHAR
		)`, constants.TableDimCategory),
	fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			payment_id BIGINT PRIMARY KEY,
			payment_type VARCHAR,
			payment_currency VARCHAR,
			payment_method VARCHAR
		)`, constants.TableDimPayment),
	fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			date_id BIGINT PRIMARY KEY,
			year INTEGER,
			quarter INTEGER,
			month INTEGER,
			weekday VARCHAR,
			day INTEGER,
			hour INTEGER,
			minute INTEGER
		)`, constants.TableDimDate),
	fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			transaction_id VARCHAR PRIMARY KEY,
			category_id BIGINT,
			date_id BIGINT,
			user_id VARCHAR,
			payment_id BIGINT,
			transaction_amount DOUBLE
		)`, constants.TableTransactionFact),
}

// CreateTables applies the warehouse DDL. Idempotent: safe on every startup.
func (s *Session) CreateTables(ctx context.Context) error {
	for _, stmt := range createTableStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply warehouse DDL: %w", err)
		}
	}
	s.logger.WithField("tables", len(createTableStatements)).Info("warehouse schema ready")
	return nil
}

// TableCount returns the number of rows currently in a warehouse table.
// The name must be one of constants.WarehouseTables; it is interpolated, not
// bound, because DuckDB cannot parameterize identifiers.
func (s *Session) TableCount(ctx context.Context, table string) (int64, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown warehouse table %q", table)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func knownTable(table string) bool {
	for _, t := range constants.WarehouseTables {
		if t == table {
			return true
		}
	}
	return false
}
