package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// ConnectTimeout bounds the retry loop; zero means two minutes.
	ConnectTimeout time.Duration
}

// Storage is the single writer of users, products, product photos and orders.
type Storage struct {
	db     *sqlx.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Storage, error) {
	const operation = "storage.New"

	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("%s: unsupported driver %q", operation, cfg.Driver)
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	if cfg.ConnectTimeout > 0 {
		retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	}
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to database...", zap.String("driver", cfg.Driver))

	var db *sqlx.DB
	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Database connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to database", zap.String("driver", cfg.Driver))
	return &Storage{
		db:     db,
		driver: cfg.Driver,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) DB() *sql.DB {
	return s.db.DB
}

func (s *Storage) stamp() Timestamp {
	return Timestamp{Time: s.now().UTC()}
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
