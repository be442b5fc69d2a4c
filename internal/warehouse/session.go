package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/sirupsen/logrus"
)

// S3Options carries the credentials DuckDB needs to reach the object store
// directly (read_parquet over s3://, parquet COPY targets).
type S3Options struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Session owns the single DuckDB handle for a pipeline run or an API process.
// It is constructed once, passed to every component that needs the warehouse,
// and closed unconditionally by the owner.
type Session struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open connects to the DuckDB database file (or an in-memory database when
// path is empty) and loads the httpfs extension so s3:// URIs resolve.
func Open(path string, s3 *S3Options, logger *logrus.Logger) (*Session, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	s := &Session{db: db, logger: logger}

	for _, stmt := range []string{"INSTALL httpfs", "LOAD httpfs"} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set up httpfs (%s): %w", stmt, err)
		}
	}

	if s3 != nil {
		if err := s.configureS3(s3); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DuckDB: %w", err)
	}

	logger.WithField("path", path).Info("connected to DuckDB")
	return s, nil
}

// configureS3 registers the default S3 secret pointing at the object store.
// DuckDB picks it up for every s3:// URI in the session.
func (s *Session) configureS3(opts *S3Options) error {
	endpoint := strings.TrimPrefix(opts.Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	s.db.Exec("DROP SECRET IF EXISTS __default_s3")

	createSecretSQL := fmt.Sprintf(`
		CREATE SECRET __default_s3 (
			TYPE S3,
			KEY_ID '%s',
			SECRET '%s',
			REGION '%s',
			ENDPOINT '%s',
			URL_STYLE 'path',
			USE_SSL %t
		)
	`, opts.AccessKey, opts.SecretKey, opts.Region, endpoint, opts.UseSSL)

	if _, err := s.db.Exec(createSecretSQL); err != nil {
		return fmt.Errorf("failed to create S3 secret: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"region":   opts.Region,
	}).Info("S3 credentials configured")
	return nil
}

// DB exposes the underlying handle for components that run their own queries.
func (s *Session) DB() *sql.DB {
	return s.db
}

// Ping checks the warehouse is reachable.
func (s *Session) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the DuckDB handle.
func (s *Session) Close() error {
	if s.db != nil {
		s.logger.Debug("closing DuckDB connection")
		return s.db.Close()
	}
	return nil
}
