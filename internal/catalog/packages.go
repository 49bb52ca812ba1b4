package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// UpsertPackage registers or refreshes a package keyed by its install path.
// A second registration at the same path updates metadata in place; the row
// keeps its id so content references stay intact.
func (s *Store) UpsertPackage(ctx context.Context, p *Package) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO packages (name, vendor, version, path, is_factory)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				name       = excluded.name,
				vendor     = excluded.vendor,
				version    = excluded.version,
				is_factory = excluded.is_factory
			RETURNING id`,
			p.Name, p.Vendor, p.Version, p.Path, boolToInt(p.IsFactory))
		return row.Scan(&p.ID)
	})
	return mapWriteError(err, "packages")
}

// GetPackage fetches a package by id.
func (s *Store) GetPackage(ctx context.Context, id int64) (*Package, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, vendor, version, path, installed_at, is_factory
		FROM packages WHERE id = ?`, id)
	return scanPackage(row, fmt.Sprintf("%d", id))
}

// GetPackageByPath fetches a package by its canonical install path.
func (s *Store) GetPackageByPath(ctx context.Context, path string) (*Package, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, vendor, version, path, installed_at, is_factory
		FROM packages WHERE path = ?`, path)
	return scanPackage(row, path)
}

// ListPackages returns all registered packages ordered by name.
func (s *Store) ListPackages(ctx context.Context) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, vendor, version, path, installed_at, is_factory
		FROM packages ORDER BY name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		var factory int
		if err := rows.Scan(&p.ID, &p.Name, &p.Vendor, &p.Version, &p.Path, &p.InstalledAt, &factory); err != nil {
			return nil, err
		}
		p.IsFactory = factory != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePackage removes a package registration. Content rows that referenced
// it survive with a cleared package link; they are not deleted.
func (s *Store) DeletePackage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, "packages")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bwerrors.NotFound("package", fmt.Sprintf("%d", id))
	}
	return nil
}

func scanPackage(row *sql.Row, key string) (*Package, error) {
	var p Package
	var factory int
	err := row.Scan(&p.ID, &p.Name, &p.Vendor, &p.Version, &p.Path, &p.InstalledAt, &factory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bwerrors.NotFound("package", key)
	}
	if err != nil {
		return nil, err
	}
	p.IsFactory = factory != 0
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
