package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NikiP31/TransactionsPipeline/internal/models"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// ReadBatch loads one silver parquet file into memory through DuckDB's
// read_parquet. The column set comes from the file itself, so schema drift
// across files surfaces here and is handled downstream, not rejected.
func ReadBatch(ctx context.Context, sess *warehouse.Session, uri string) (*models.Batch, error) {
	// URIs come from our own bucket listing, not user input; single quotes
	// are doubled anyway since object keys may contain them.
	query := fmt.Sprintf("SELECT * FROM read_parquet('%s')", strings.ReplaceAll(uri, "'", "''"))

	rows, err := sess.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet %s: %w", uri, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for %s: %w", uri, err)
	}

	batch := &models.Batch{Source: uri, Columns: cols}

	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", uri, err)
		}

		row := make(models.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error for %s: %w", uri, err)
	}

	return batch, nil
}

// normalizeValue collapses driver-specific representations so the rest of the
// pipeline only sees string, float64, int64, time.Time or nil.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// stringField returns the row value as a string for natural-key
// concatenation and dimension attributes. Nil maps to the empty string; the
// ok result distinguishes a real value from a NULL.
func stringField(row models.Row, col string) (string, bool) {
	v, present := row[col]
	if !present || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	default:
		return fmt.Sprintf("%v", x), true
	}
}

// floatField returns the row value as a float64 when it is numeric.
func floatField(row models.Row, col string) (float64, bool) {
	v, present := row[col]
	if !present || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// Timestamp layouts seen in silver files that predate TRY_CAST cleaning.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// timeField returns the row value as a timestamp. Silver files normally carry
// a real TIMESTAMP column, but string fallbacks are parsed too.
func timeField(row models.Row, col string) (time.Time, bool) {
	v, present := row[col]
	if !present || v == nil {
		return time.Time{}, false
	}
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, x); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
