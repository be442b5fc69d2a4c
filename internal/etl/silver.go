package etl

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/lake"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// Cleaner is the bronze→silver step: a per-file projection that normalizes
// types and drops rows that cannot be transactions (no parseable date, no
// positive amount, malformed email). Runs entirely inside DuckDB.
type Cleaner struct {
	db     *sql.DB
	lake   *lake.Client
	logger *logrus.Logger
}

func NewCleaner(sess *warehouse.Session, lc *lake.Client, logger *logrus.Logger) *Cleaner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cleaner{db: sess.DB(), lake: lc, logger: logger}
}

// CleanAll transforms every bronze parquet file into a silver file named
// with a fresh UUID. A failed file is logged and skipped; the rest proceed.
// Returns the number of silver files written.
func (c *Cleaner) CleanAll(ctx context.Context) (int, error) {
	bronzeURIs, err := c.lake.ListParquet(ctx, constants.BronzePrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list bronze files: %w", err)
	}
	if len(bronzeURIs) == 0 {
		c.logger.Warn("no bronze parquet files found")
		return 0, nil
	}

	c.logger.WithField("files", len(bronzeURIs)).Info("found bronze parquet files")

	written := 0
	for _, uri := range bronzeURIs {
		target := c.lake.URI(fmt.Sprintf("%s/silver_%s%s",
			constants.SilverPrefix, silverFileID(), constants.ParquetSuffix))

		if err := c.cleanFile(ctx, uri, target); err != nil {
			c.logger.WithError(err).WithField("source", uri).Warn("failed to clean bronze file, skipping")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"source": uri,
			"target": target,
		}).Info("silver file written")
		written++
	}

	return written, nil
}

// silverFileID returns a fresh 32-char hex id, the form silver file names
// have always used.
func silverFileID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func (c *Cleaner) cleanFile(ctx context.Context, source, target string) error {
	copySQL := fmt.Sprintf(`
		COPY (
			SELECT
				user_id,
				name,
				email,
				phone,
				street_address,
				city,
				country,
				transaction_id,
				TRY_CAST(transaction_date AS TIMESTAMP) AS transaction_date,
				TRY_CAST(amount AS DOUBLE) AS amount,
				currency,
				merchant,
				category,
				transaction_type,
				payment_method
			FROM read_parquet('%s')
			WHERE email LIKE '%%@%%'
			  AND amount IS NOT NULL
			  AND TRY_CAST(amount AS DOUBLE) > 0
			  AND TRY_CAST(transaction_date AS TIMESTAMP) IS NOT NULL
		)
		TO '%s'
		(FORMAT PARQUET, OVERWRITE_OR_IGNORE TRUE)
	`, strings.ReplaceAll(source, "'", "''"), target)

	if _, err := c.db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("bronze to silver copy failed: %w", err)
	}
	return nil
}
