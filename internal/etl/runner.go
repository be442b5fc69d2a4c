package etl

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
	"github.com/NikiP31/TransactionsPipeline/internal/lake"
	"github.com/NikiP31/TransactionsPipeline/internal/models"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// FileState is the terminal state of one silver file within a run.
type FileState string

const (
	StateProcessed             FileState = "processed"
	StateSkippedEmpty          FileState = "skipped(empty)"
	StateSkippedMissingColumns FileState = "skipped(missing-required-columns)"
	StateFailedRead            FileState = "failed(read-error)"
)

// RunSummary reports the outcome of a silver→gold run. Skipped and failed
// files are simply absent from this run's contribution; a rerun picks them
// up without duplicating anything already written.
type RunSummary struct {
	Files     map[string]FileState
	Processed int
	Skipped   int
	Failed    int
	Exported  int
}

// Runner drives the silver→gold step: for each silver file, dimensions
// first, then facts; one final export pass at the end. Strictly sequential —
// the warehouse tables are owned by this single process for the whole run.
type Runner struct {
	sess     *warehouse.Session
	lake     *lake.Client
	upserter *Upserter
	facts    *FactResolver
	exporter *Exporter
	logger   *logrus.Logger
}

func NewRunner(sess *warehouse.Session, lc *lake.Client, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		sess:     sess,
		lake:     lc,
		upserter: NewUpserter(sess, logger),
		facts:    NewFactResolver(sess, logger),
		exporter: NewExporter(sess, lc, logger),
		logger:   logger,
	}
}

// Run processes every silver file and exports the warehouse to gold.
// Only discovery and DDL failures are returned as errors; everything after
// that is isolated per file, per dimension and per table.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	if err := r.sess.CreateTables(ctx); err != nil {
		return nil, err
	}

	silverURIs, err := r.lake.ListParquet(ctx, constants.SilverPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list silver files: %w", err)
	}

	summary := &RunSummary{Files: make(map[string]FileState, len(silverURIs))}

	if len(silverURIs) == 0 {
		r.logger.Warn("no silver parquet files found, nothing to process")
		summary.Exported = r.exporter.ExportAll(ctx)
		return summary, nil
	}

	r.logger.WithField("files", len(silverURIs)).Info("found silver parquet files")

	for _, uri := range silverURIs {
		state := r.processFile(ctx, uri)
		summary.Files[uri] = state
		switch state {
		case StateProcessed:
			summary.Processed++
		case StateFailedRead:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}

	summary.Exported = r.exporter.ExportAll(ctx)

	r.logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"exported":  summary.Exported,
	}).Info("silver to gold run complete")

	return summary, nil
}

// processFile walks one file through the batch state machine:
// discovered → schema-checked → dims-upserted → fact-inserted, or one of the
// skip/fail terminals. No retries: a rerun of the whole pipeline is the
// recovery path, and it converges because every insert is conditional.
func (r *Runner) processFile(ctx context.Context, uri string) FileState {
	r.logger.WithField("source", uri).Info("processing silver file")

	batch, err := ReadBatch(ctx, r.sess, uri)
	if err != nil {
		r.logger.WithError(err).WithField("source", uri).Warn("failed to read silver file, skipping")
		return StateFailedRead
	}

	if batch.Empty() {
		r.logger.WithField("source", uri).Warn("silver file empty, skipping")
		return StateSkippedEmpty
	}

	if !r.usable(batch) {
		r.logger.WithFields(logrus.Fields{
			"source":  uri,
			"columns": batch.Columns,
		}).Warn("file can contribute neither dimensions nor facts, skipping")
		return StateSkippedMissingColumns
	}

	r.upserter.UpsertAll(ctx, batch)

	n, err := r.facts.Insert(ctx, batch)
	if err != nil {
		r.logger.WithError(err).WithField("source", uri).Warn("fact insert failed, continuing")
	} else if n > 0 {
		r.logger.WithFields(logrus.Fields{"source": uri, "rows": n}).Info("fact rows inserted")
	}

	return StateProcessed
}

// usable is the schema check: the file must be able to feed at least one
// dimension or the fact table to be worth processing.
func (r *Runner) usable(batch *models.Batch) bool {
	if batch.HasColumns(factKeyColumns...) {
		return true
	}
	for _, keys := range [][]string{userKeyColumns, categoryKeyColumns, paymentKeyColumns, dateKeyColumns} {
		if batch.HasColumns(keys...) {
			return true
		}
	}
	return false
}
