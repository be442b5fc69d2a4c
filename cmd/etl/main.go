package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/config"
	"github.com/NikiP31/TransactionsPipeline/internal/etl"
	"github.com/NikiP31/TransactionsPipeline/internal/lake"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main runs the full pipeline: bronze→silver cleaning, then silver→gold
// dimension and fact loading, then the gold export. Each stage can be run
// on its own with -stage.
func main() {
	stageFlag := flag.String("stage", "all", "Pipeline stage to run: silver, gold, or all")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// A signal cancels the context; the current statement finishes and the
	// next step sees the cancellation. A rerun picks up whatever was left.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	lc, err := lake.NewClient(lake.Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Region:    cfg.MinIORegion,
		UseSSL:    cfg.MinIOUseSSL,
		Bucket:    cfg.Bucket,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create object store client")
	}
	if err := lc.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("object store unavailable")
	}

	sess, err := warehouse.Open(cfg.DuckDBPath, &warehouse.S3Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Region:    cfg.MinIORegion,
		UseSSL:    cfg.MinIOUseSSL,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open warehouse")
	}
	defer sess.Close()

	runSilver := *stageFlag == "all" || *stageFlag == "silver"
	runGold := *stageFlag == "all" || *stageFlag == "gold"
	if !runSilver && !runGold {
		logger.WithField("stage", *stageFlag).Fatal("unknown stage, want silver, gold or all")
	}

	if runSilver {
		cleaner := etl.NewCleaner(sess, lc, logger)
		n, err := cleaner.CleanAll(ctx)
		if err != nil {
			logger.WithError(err).Fatal("bronze to silver stage failed")
		}
		logger.WithField("files", n).Info("bronze to silver stage complete")
	}

	if runGold {
		runner := etl.NewRunner(sess, lc, logger)
		summary, err := runner.Run(ctx)
		if err != nil {
			logger.WithError(err).Fatal("silver to gold stage failed")
		}
		logger.WithFields(logrus.Fields{
			"processed": summary.Processed,
			"skipped":   summary.Skipped,
			"failed":    summary.Failed,
			"exported":  summary.Exported,
		}).Info("pipeline run finished")
	}
}
