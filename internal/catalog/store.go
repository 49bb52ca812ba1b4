package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// Store is the shared catalog handle. It is safe for concurrent use; WAL mode
// allows readers to proceed while the single indexer writer is active.
type Store struct {
	db   *sql.DB
	path string
}

// connPragmas is applied to every pooled connection via the DSN. Foreign keys
// and busy_timeout are per-connection settings in SQLite; enabling them with a
// one-off Exec would cover only whichever connection the pool handed out.
const connPragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)"

// Open opens (or creates) the catalog database at path.
// Pass ":memory:" for an ephemeral catalog (testing).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+connPragmas)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	if path == ":memory:" {
		// Each pooled connection to :memory: would open its own empty
		// database; collapse the pool to one connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, bwerrors.StorageUnavailable(err)
	}

	s := &Store{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only, never automatic.
func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// withTx runs fn inside a transaction, rolling back on error.
// Multi-row writes are never partially applied.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return bwerrors.StorageUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// mapWriteError classifies a SQLite write failure into the structured error
// taxonomy. The driver exposes constraint failures only through the error
// text, so classification is by message.
func mapWriteError(err error, table string) error {
	if err == nil {
		return nil
	}
	var ce *bwerrors.CatalogError
	if errors.As(err, &ce) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		code := bwerrors.ErrCodeNameConflict
		if strings.Contains(msg, ".file_path") || strings.Contains(msg, ".path") {
			code = bwerrors.ErrCodePathConflict
		}
		return bwerrors.ConstraintViolation(code, table, constraintColumn(msg), err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return bwerrors.ConstraintViolation(bwerrors.ErrCodeForeignKey, table, "", err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return bwerrors.ConstraintViolation(bwerrors.ErrCodeCheckFailed, table, constraintColumn(msg), err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "unable to open"):
		return bwerrors.StorageUnavailable(err)
	default:
		return bwerrors.Wrap(bwerrors.ErrCodeInternal, err)
	}
}

// constraintColumn extracts the "table.column" tail of a SQLite constraint
// message, e.g. "UNIQUE constraint failed: content.file_path".
func constraintColumn(msg string) string {
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return ""
}
