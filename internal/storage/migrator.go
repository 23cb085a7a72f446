package storage

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// schemaVersion is the migration that creates the base tables; legacy columns are
// reconciled right after it and before any later migration runs.
const schemaVersion = 1

type columnRename struct {
	table, from, to string
}

type columnSpec struct {
	table, column string
	sqlite        string
	postgres      string
}

var legacyRenames = []columnRename{
	{"users", "tg_id", "external_chat_id"},
	{"product_photos", "file_id", "file_reference"},
}

var additiveColumns = []columnSpec{
	{"orders", "status", "TEXT NOT NULL DEFAULT 'open'", "TEXT NOT NULL DEFAULT 'open'"},
	{"orders", "order_price_per_kg", "REAL", "DOUBLE PRECISION"},
	{"orders", "closed_at", "TEXT", "TEXT"},
	{"orders", "closed_by", "INTEGER", "BIGINT"},
	{"orders", "canceled_by_role", "TEXT", "TEXT"},
	{"orders", "latitude", "REAL", "DOUBLE PRECISION"},
	{"orders", "longitude", "REAL", "DOUBLE PRECISION"},
	{"users", "activity_count", "INTEGER NOT NULL DEFAULT 0", "INTEGER NOT NULL DEFAULT 0"},
	{"users", "is_blocked", "INTEGER NOT NULL DEFAULT 0", "INTEGER NOT NULL DEFAULT 0"},
	{"products", "is_deleted", "INTEGER NOT NULL DEFAULT 0", "INTEGER NOT NULL DEFAULT 0"},
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }

// Migrate brings the schema up to date. It is safe to run on every start and on
// databases created by earlier releases.
func (s *Storage) Migrate(ctx context.Context) error {
	const operation = "storage.Migrate"

	s.logger.Info("Running database migrations...")

	dir, dialect := "migrations/sqlite", "sqlite3"
	if s.driver == DriverPostgres {
		dir, dialect = "migrations/postgres", "postgres"
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: s.logger.Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	if err := goose.UpToContext(ctx, s.db.DB, dir, schemaVersion); err != nil {
		return fmt.Errorf("%s: failed to create schema: %w", operation, err)
	}
	if err := s.reconcileColumns(ctx); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := goose.UpContext(ctx, s.db.DB, dir); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", operation, err)
	}

	s.logger.Info("Database migrations completed successfully")
	return nil
}

func (s *Storage) reconcileColumns(ctx context.Context) error {
	for _, r := range legacyRenames {
		cols, err := s.columns(ctx, r.table)
		if err != nil {
			return err
		}
		if cols[r.from] && !cols[r.to] {
			stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", r.table, r.from, r.to)
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("rename %s.%s: %w", r.table, r.from, err)
			}
			s.logger.Info("Renamed legacy column",
				zap.String("table", r.table),
				zap.String("from", r.from),
				zap.String("to", r.to))
		}
	}

	existing := make(map[string]map[string]bool)
	for _, c := range additiveColumns {
		cols, ok := existing[c.table]
		if !ok {
			var err error
			if cols, err = s.columns(ctx, c.table); err != nil {
				return err
			}
			existing[c.table] = cols
		}
		if cols[c.column] {
			continue
		}
		ddl := c.sqlite
		if s.driver == DriverPostgres {
			ddl = c.postgres
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, ddl)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add %s.%s: %w", c.table, c.column, err)
		}
		cols[c.column] = true
		s.logger.Info("Added missing column",
			zap.String("table", c.table),
			zap.String("column", c.column))
	}
	return s.relaxChatIdentity(ctx)
}

// relaxChatIdentity drops the NOT NULL that legacy schemas put on the chat id, so
// walk-in customers can be stored without one.
func (s *Storage) relaxChatIdentity(ctx context.Context) error {
	required, err := s.columnRequired(ctx, "users", "external_chat_id")
	if err != nil {
		return err
	}
	if !required {
		return nil
	}

	if s.driver == DriverPostgres {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE users ALTER COLUMN external_chat_id DROP NOT NULL`); err != nil {
			return fmt.Errorf("relax users.external_chat_id: %w", err)
		}
	} else if err := s.rebuildUsers(ctx); err != nil {
		return fmt.Errorf("rebuild users: %w", err)
	}

	s.logger.Info("Made users.external_chat_id nullable")
	return nil
}

func (s *Storage) columnRequired(ctx context.Context, table, column string) (bool, error) {
	query := `SELECT "notnull" FROM pragma_table_info(?) WHERE name = ?`
	if s.driver == DriverPostgres {
		query = `SELECT is_nullable = 'NO' FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	}

	var required bool
	if err := s.db.GetContext(ctx, &required, s.db.Rebind(query), table, column); err != nil {
		return false, fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	return required, nil
}

// rebuildUsers copies users into a table with the current definition. SQLite cannot
// alter a column constraint in place. Foreign keys are switched off on the connection
// for the duration, otherwise dropping the old table would cascade into orders.
func (s *Storage) rebuildUsers(ctx context.Context) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var foreignKeys bool
	if err := conn.GetContext(ctx, &foreignKeys, `PRAGMA foreign_keys`); err != nil {
		return err
	}
	if foreignKeys {
		if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
			return err
		}
		defer func() {
			if _, err := conn.ExecContext(context.WithoutCancel(ctx), `PRAGMA foreign_keys = ON`); err != nil {
				s.logger.Error("Failed to re-enable foreign keys", zap.Error(err))
			}
		}()
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.stamp()
	steps := []struct {
		query string
		args  []any
	}{
		{query: `CREATE TABLE users_new (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_chat_id INTEGER UNIQUE,
			first_name TEXT,
			last_name TEXT,
			phone TEXT,
			created_at TEXT NOT NULL,
			last_active TEXT NOT NULL,
			activity_count INTEGER NOT NULL DEFAULT 0,
			is_blocked INTEGER NOT NULL DEFAULT 0
		)`},
		{query: `INSERT INTO users_new (
			id, external_chat_id, first_name, last_name, phone,
			created_at, last_active, activity_count, is_blocked
		)
		SELECT
			id, external_chat_id, first_name, last_name, phone,
			COALESCE(created_at, ?), COALESCE(last_active, created_at, ?),
			COALESCE(activity_count, 0), COALESCE(is_blocked, 0)
		FROM users`, args: []any{now, now}},
		{query: `DROP TABLE users`},
		{query: `ALTER TABLE users_new RENAME TO users`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) columns(ctx context.Context, table string) (map[string]bool, error) {
	query := `SELECT name FROM pragma_table_info(?)`
	if s.driver == DriverPostgres {
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?`
	}

	var names []string
	if err := s.db.SelectContext(ctx, &names, s.db.Rebind(query), table); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}

	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}
