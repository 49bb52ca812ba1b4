package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// CreateCollection creates a static collection with an empty membership list.
func (s *Store) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	return s.createCollection(ctx, name, CollectionStatic, nil)
}

// CreateSmartCollection creates a smart collection from a filter set.
// The filter is validated here, at definition time; evaluation never fails on
// a stored filter.
func (s *Store) CreateSmartCollection(ctx context.Context, name string, f Filters) (*Collection, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.createCollection(ctx, name, CollectionSmart, &f)
}

func (s *Store) createCollection(ctx context.Context, name string, kind CollectionKind, f *Filters) (*Collection, error) {
	if name == "" {
		return nil, bwerrors.New(bwerrors.ErrCodeInvalidInput, "collection name is required", nil)
	}

	var filterSpec any
	if f != nil {
		encoded, err := f.Encode()
		if err != nil {
			return nil, err
		}
		filterSpec = encoded
	}

	col := &Collection{Name: name, Kind: kind, Filter: f}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO collections (name, kind, filter)
			VALUES (?, ?, ?)
			RETURNING id, created_at`,
			name, string(kind), filterSpec)
		return row.Scan(&col.ID, &col.CreatedAt)
	})
	if err != nil {
		return nil, mapWriteError(err, "collections")
	}
	return col, nil
}

// GetCollection fetches a collection by name.
func (s *Store) GetCollection(ctx context.Context, name string) (*Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, filter, created_at
		FROM collections WHERE name = ?`, name)
	return scanCollection(row, name)
}

// ListCollections returns all collections ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, filter, created_at
		FROM collections ORDER BY name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		col, err := scanCollectionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *col)
	}
	return out, rows.Err()
}

// DeleteCollection removes a collection and its membership rows. Content is
// untouched.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return mapWriteError(err, "collections")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bwerrors.NotFound("collection", name)
	}
	return nil
}

// AddToCollection adds content ids to a static collection. The whole batch
// applies atomically; adding an already-present member is a no-op.
// Smart collections have no explicit membership and reject adds.
func (s *Store) AddToCollection(ctx context.Context, name string, contentIDs ...int64) error {
	col, err := s.GetCollection(ctx, name)
	if err != nil {
		return err
	}
	if col.Kind != CollectionStatic {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput,
			fmt.Sprintf("collection %q is smart; membership is defined by its filter", name), nil)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range contentIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO collection_items (collection_id, content_id)
				VALUES (?, ?)
				ON CONFLICT(collection_id, content_id) DO NOTHING`,
				col.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	return mapWriteError(err, "collection_items")
}

// RemoveFromCollection removes content ids from a static collection.
// Removing an absent member is a no-op.
func (s *Store) RemoveFromCollection(ctx context.Context, name string, contentIDs ...int64) error {
	col, err := s.GetCollection(ctx, name)
	if err != nil {
		return err
	}
	if col.Kind != CollectionStatic {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput,
			fmt.Sprintf("collection %q is smart; membership is defined by its filter", name), nil)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range contentIDs {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM collection_items
				WHERE collection_id = ? AND content_id = ?`,
				col.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
	return mapWriteError(err, "collection_items")
}

// EvaluateCollection resolves a collection to its current members.
//
// Static collections read the membership table. Smart collections run their
// stored filter against live catalog state on every call; results are never
// cached, so content indexed after the collection was defined appears as soon
// as it matches. Both orderings are by name.
func (s *Store) EvaluateCollection(ctx context.Context, name string) ([]SearchResult, error) {
	col, err := s.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	if col.Kind == CollectionSmart {
		var f Filters
		if col.Filter != nil {
			f = *col.Filter
		}
		candidates, err := s.SearchCandidates(ctx, f, "")
		if err != nil {
			return nil, err
		}
		out := make([]SearchResult, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, SearchResult{
				ID:           c.ID,
				Name:         c.Name,
				ContentType:  c.ContentType,
				Category:     c.Category,
				ParentDevice: c.ParentDevice,
				FilePath:     c.FilePath,
				PackageName:  c.PackageName,
			})
		}
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.content_type, c.category, c.parent_device,
		       c.file_path, COALESCE(p.name, '')
		FROM collection_items ci
		JOIN content c ON c.id = ci.content_id
		LEFT JOIN packages p ON p.id = c.package_id
		WHERE ci.collection_id = ?
		ORDER BY c.name COLLATE NOCASE ASC, c.id ASC`, col.ID)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.ContentType, &r.Category,
			&r.ParentDevice, &r.FilePath, &r.PackageName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanCollection(row *sql.Row, key string) (*Collection, error) {
	var col Collection
	var filterSpec sql.NullString
	err := row.Scan(&col.ID, &col.Name, &col.Kind, &filterSpec, &col.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bwerrors.NotFound("collection", key)
	}
	if err != nil {
		return nil, err
	}
	return decodeCollectionFilter(&col, filterSpec)
}

func scanCollectionRows(rows *sql.Rows) (*Collection, error) {
	var col Collection
	var filterSpec sql.NullString
	if err := rows.Scan(&col.ID, &col.Name, &col.Kind, &filterSpec, &col.CreatedAt); err != nil {
		return nil, err
	}
	return decodeCollectionFilter(&col, filterSpec)
}

func decodeCollectionFilter(col *Collection, spec sql.NullString) (*Collection, error) {
	if col.Kind == CollectionSmart && spec.Valid {
		f, err := DecodeFilters(spec.String)
		if err != nil {
			// The filter was validated on write; a decode failure here means
			// the stored spec was tampered with or the schema drifted.
			return nil, bwerrors.Wrap(bwerrors.ErrCodeStorageCorrupt, err).
				WithDetail("collection", col.Name)
		}
		col.Filter = &f
	}
	return col, nil
}
