package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"gicowa/logger"
)

const schema = `
	CREATE TABLE IF NOT EXISTS last_runs (
		command TEXT PRIMARY KEY,
		ran_at TIMESTAMP NOT NULL
	)
`

// SQLBackend keeps the record in a last_runs table, one row per subject.
type SQLBackend struct {
	conn *sqlx.DB
}

type lastRun struct {
	Command string    `db:"command"`
	RanAt   time.Time `db:"ran_at"`
}

// OpenSQL connects with driver ("postgres" or "sqlite3") and creates the
// table if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: dsn cannot be empty", ErrInvalidInput)
	}

	logger.Info("Connecting to state database", zap.String("driver", driver))
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
	}

	backend := &SQLBackend{conn: conn}
	if err := backend.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return backend, nil
}

func (b *SQLBackend) ensureSchema(ctx context.Context) error {
	if _, err := b.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create last_runs table: %w", err)
	}
	return nil
}

// Load reads every row.
func (b *SQLBackend) Load(ctx context.Context) (Record, error) {
	var rows []lastRun
	if err := b.conn.SelectContext(ctx, &rows, "SELECT command, ran_at FROM last_runs"); err != nil {
		return nil, fmt.Errorf("failed to select last runs: %w", err)
	}

	rec := make(Record, len(rows))
	for _, row := range rows {
		rec[row.Command] = row.RanAt.UTC()
	}
	return rec, nil
}

// Save replaces every row with rec in one transaction.
func (b *SQLBackend) Save(ctx context.Context, rec Record) error {
	tx, err := b.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM last_runs"); err != nil {
		return fmt.Errorf("failed to clear last runs: %w", err)
	}

	commands := make([]string, 0, len(rec))
	for command := range rec {
		commands = append(commands, command)
	}
	sort.Strings(commands)

	insert := tx.Rebind("INSERT INTO last_runs (command, ran_at) VALUES (?, ?)")
	for _, command := range commands {
		if _, err := tx.ExecContext(ctx, insert, command, rec[command].UTC()); err != nil {
			return fmt.Errorf("failed to insert last run %q: %w", command, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	logger.Info("Last runs stored", zap.Int("entries", len(rec)))
	return nil
}

// Close closes the database connection
func (b *SQLBackend) Close() error {
	return b.conn.Close()
}
