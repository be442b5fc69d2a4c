package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/lake"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// Exporter snapshots the warehouse tables to gold parquet objects. Each run
// fully overwrites the previous snapshot of every table.
type Exporter struct {
	db     *sql.DB
	lake   *lake.Client
	logger *logrus.Logger
}

func NewExporter(sess *warehouse.Session, lc *lake.Client, logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Exporter{db: sess.DB(), lake: lc, logger: logger}
}

// ExportAll writes one parquet file per warehouse table under the gold
// prefix. Tables are independent: a failed export is logged and the rest
// still run. Returns the number of tables exported.
func (e *Exporter) ExportAll(ctx context.Context) int {
	exported := 0
	for _, table := range constants.WarehouseTables {
		target := e.lake.URI(fmt.Sprintf("%s/%s%s", constants.GoldPrefix, table, constants.ParquetSuffix))

		copySQL := fmt.Sprintf(`
			COPY (SELECT * FROM %s)
			TO '%s'
			(FORMAT PARQUET, OVERWRITE_OR_IGNORE TRUE)
		`, table, target)

		if _, err := e.db.ExecContext(ctx, copySQL); err != nil {
			e.logger.WithError(err).WithField("table", table).Warn("failed to export table to gold")
			continue
		}

		e.logger.WithFields(logrus.Fields{
			"table":  table,
			"target": target,
		}).Info("exported table to gold")
		exported++
	}
	return exported
}
