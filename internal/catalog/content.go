package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
	"github.com/audio-forge-rs/find-all-bitwig/internal/vector"
)

// UpsertContent inserts or replaces the record identified by c.FilePath.
// The four derived search tiers are recomputed from the incoming metadata and
// written in the same transaction, so a committed record is always searchable
// under its current fields and never under stale ones.
//
// On success c.ID is set to the row id (preserved across updates).
func (s *Store) UpsertContent(ctx context.Context, c *Content) error {
	if err := validateContent(c); err != nil {
		return err
	}

	v := vector.Build(vector.Fields{
		Name:         c.Name,
		Description:  c.Description,
		ParentDevice: c.ParentDevice,
		Category:     c.Category,
		Subcategory:  c.Subcategory,
		Tags:         c.Tags,
		Creator:      c.Creator,
	})

	tags, err := json.Marshal(tagsOrEmpty(c.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	var deviceType any
	if c.DeviceType != nil {
		deviceType = string(*c.DeviceType)
	}
	var deviceUUID any
	if c.DeviceUUID != nil {
		deviceUUID = c.DeviceUUID.String()
	}
	var modifiedAt any
	if !c.ModifiedAt.IsZero() {
		modifiedAt = c.ModifiedAt.UTC()
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO content (
				name, file_path, content_type, package_id, parent_device,
				description, category, subcategory, tags, creator,
				device_type, device_uuid, plugin_id,
				sample_rate, channels, duration_ms, bpm, key_signature,
				file_size, file_hash, modified_at, indexed_at,
				search_a, search_b, search_c, search_d
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?, ?, ?, ?)
			ON CONFLICT(file_path) DO UPDATE SET
				name          = excluded.name,
				content_type  = excluded.content_type,
				package_id    = excluded.package_id,
				parent_device = excluded.parent_device,
				description   = excluded.description,
				category      = excluded.category,
				subcategory   = excluded.subcategory,
				tags          = excluded.tags,
				creator       = excluded.creator,
				device_type   = excluded.device_type,
				device_uuid   = excluded.device_uuid,
				plugin_id     = excluded.plugin_id,
				sample_rate   = excluded.sample_rate,
				channels      = excluded.channels,
				duration_ms   = excluded.duration_ms,
				bpm           = excluded.bpm,
				key_signature = excluded.key_signature,
				file_size     = excluded.file_size,
				file_hash     = excluded.file_hash,
				modified_at   = excluded.modified_at,
				indexed_at    = CURRENT_TIMESTAMP,
				search_a      = excluded.search_a,
				search_b      = excluded.search_b,
				search_c      = excluded.search_c,
				search_d      = excluded.search_d
			RETURNING id`,
			c.Name, c.FilePath, string(c.ContentType), c.PackageID, c.ParentDevice,
			c.Description, c.Category, c.Subcategory, string(tags), c.Creator,
			deviceType, deviceUUID, c.PluginID,
			c.SampleRate, c.Channels, c.DurationMS, c.BPM, c.KeySignature,
			c.FileSize, c.FileHash, modifiedAt,
			v.A, v.B, v.C, v.D)
		return row.Scan(&c.ID)
	})
	return mapWriteError(err, "content")
}

func validateContent(c *Content) error {
	if c.FilePath == "" {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput, "content file path is required", nil)
	}
	if c.Name == "" {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput, "content name is required", nil).
			WithDetail("path", c.FilePath)
	}
	if !c.ContentType.Valid() {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid content type %q", c.ContentType), nil).
			WithDetail("path", c.FilePath)
	}
	if c.DeviceType != nil && !c.DeviceType.Valid() {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput,
			fmt.Sprintf("invalid device type %q", *c.DeviceType), nil).
			WithDetail("path", c.FilePath)
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

const contentColumns = `
	c.id, c.name, c.file_path, c.content_type, c.package_id, c.parent_device,
	c.description, c.category, c.subcategory, c.tags, c.creator,
	c.device_type, c.device_uuid, c.plugin_id,
	c.sample_rate, c.channels, c.duration_ms, c.bpm, c.key_signature,
	c.file_size, c.file_hash, c.modified_at, c.indexed_at`

// GetContent fetches a content record by id.
func (s *Store) GetContent(ctx context.Context, id int64) (*Content, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content c WHERE c.id = ?`, id)
	return scanContent(row, fmt.Sprintf("%d", id))
}

// GetContentByPath fetches a content record by its absolute file path.
func (s *Store) GetContentByPath(ctx context.Context, path string) (*Content, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content c WHERE c.file_path = ?`, path)
	return scanContent(row, path)
}

// DeleteContent removes a record by id, cascading its collection memberships
// and usage events.
func (s *Store) DeleteContent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return mapWriteError(err, "content")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bwerrors.NotFound("content", fmt.Sprintf("%d", id))
	}
	return nil
}

func scanContent(row *sql.Row, key string) (*Content, error) {
	var c Content
	var tagsJSON string
	var deviceType, deviceUUID sql.NullString
	var modifiedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.Name, &c.FilePath, &c.ContentType, &c.PackageID, &c.ParentDevice,
		&c.Description, &c.Category, &c.Subcategory, &tagsJSON, &c.Creator,
		&deviceType, &deviceUUID, &c.PluginID,
		&c.SampleRate, &c.Channels, &c.DurationMS, &c.BPM, &c.KeySignature,
		&c.FileSize, &c.FileHash, &modifiedAt, &c.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bwerrors.NotFound("content", key)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for %s: %w", c.FilePath, err)
	}
	if deviceType.Valid {
		dt := DeviceType(deviceType.String)
		c.DeviceType = &dt
	}
	if deviceUUID.Valid {
		if id, err := uuid.Parse(deviceUUID.String); err == nil {
			c.DeviceUUID = &id
		}
	}
	if modifiedAt.Valid {
		c.ModifiedAt = modifiedAt.Time
	}
	return &c, nil
}

// Candidate is a search candidate row: the fields ranking needs plus the raw
// full-text rank. BM25 is nil when the row had no full-text match and was
// admitted on filters or fuzzy similarity alone.
type Candidate struct {
	ID           int64
	Name         string
	ContentType  ContentType
	Category     string
	ParentDevice string
	FilePath     string
	PackageName  string
	BM25         *float64
}

// SearchCandidates returns every row passing the filter set, left-joined with
// its full-text rank for matchQuery. Per-tier weights 8/4/2/1 mirror the
// name > description > taxonomy > creator field priority. Scoring, eligibility
// and ordering happen in the ranking engine; rows come back in name order so
// downstream tie-breaking is stable.
//
// An empty matchQuery skips the full-text join entirely.
func (s *Store) SearchCandidates(ctx context.Context, f Filters, matchQuery string) ([]Candidate, error) {
	where, args := f.whereSQL()

	var query string
	var queryArgs []any
	if matchQuery == "" {
		query = `
			SELECT c.id, c.name, c.content_type, c.category, c.parent_device,
			       c.file_path, COALESCE(p.name, ''), NULL
			FROM content c
			LEFT JOIN packages p ON p.id = c.package_id
			WHERE 1=1` + where + `
			ORDER BY c.name COLLATE NOCASE ASC, c.id ASC`
		queryArgs = args
	} else {
		query = `
			SELECT c.id, c.name, c.content_type, c.category, c.parent_device,
			       c.file_path, COALESCE(p.name, ''), f.rank
			FROM content c
			LEFT JOIN packages p ON p.id = c.package_id
			LEFT JOIN (
				SELECT rowid, bm25(content_fts, 8.0, 4.0, 2.0, 1.0) AS rank
				FROM content_fts
				WHERE content_fts MATCH ?
			) f ON f.rowid = c.id
			WHERE 1=1` + where + `
			ORDER BY c.name COLLATE NOCASE ASC, c.id ASC`
		queryArgs = append([]any{matchQuery}, args...)
	}

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var rank sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Name, &c.ContentType, &c.Category,
			&c.ParentDevice, &c.FilePath, &c.PackageName, &rank); err != nil {
			return nil, err
		}
		if rank.Valid {
			r := rank.Float64
			c.BM25 = &r
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Autocomplete returns name suggestions for a case-insensitive prefix.
// Frequency counts how often the name occurs in the catalog plus how often
// matching content has been used, so names the user actually reaches for
// float up. Ties break alphabetically.
func (s *Store) Autocomplete(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// MIN(c.name) keeps the displayed spelling deterministic when a group
	// spans case variants of the same name.
	rows, err := s.db.QueryContext(ctx, `
		SELECT MIN(c.name), c.content_type,
		       COUNT(DISTINCT c.id) + COUNT(u.id) AS match_count
		FROM content c
		LEFT JOIN usage_events u ON u.content_id = c.id
		WHERE c.name LIKE ? ESCAPE '\'
		GROUP BY c.name COLLATE NOCASE, c.content_type
		ORDER BY match_count DESC, MIN(c.name) COLLATE NOCASE ASC
		LIMIT ?`,
		escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var sg Suggestion
		if err := rows.Scan(&sg.Suggestion, &sg.ContentType, &sg.MatchCount); err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FileState is the change-detection fingerprint for one indexed path.
type FileState struct {
	ID         int64
	Size       int64
	ModifiedAt time.Time
}

// FileStates returns the fingerprint of every indexed path. The incremental
// crawler compares size and mtime against disk to skip unchanged files.
func (s *Store) FileStates(ctx context.Context) (map[string]FileState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, file_size, modified_at FROM content`)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	states := make(map[string]FileState)
	for rows.Next() {
		var id, size int64
		var path string
		var modified sql.NullTime
		if err := rows.Scan(&id, &path, &size, &modified); err != nil {
			return nil, err
		}
		states[path] = FileState{ID: id, Size: size, ModifiedAt: modified.Time}
	}
	return states, rows.Err()
}

// DuplicateHashes reports groups of distinct paths sharing one content hash.
// Advisory only; duplicate rows are kept as independent records.
func (s *Store) DuplicateHashes(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_hash, file_path
		FROM content
		WHERE file_hash != '' AND file_hash IN (
			SELECT file_hash FROM content
			WHERE file_hash != ''
			GROUP BY file_hash HAVING COUNT(*) > 1
		)
		ORDER BY file_hash, file_path`)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []DuplicateGroup
	for rows.Next() {
		var hash, path string
		if err := rows.Scan(&hash, &path); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Hash != hash {
			out = append(out, DuplicateGroup{Hash: hash})
		}
		out[len(out)-1].Paths = append(out[len(out)-1].Paths, path)
	}
	return out, rows.Err()
}

// Stats summarizes catalog contents.
type Stats struct {
	Packages    int64                 `json:"packages"`
	Content     int64                 `json:"content"`
	Collections int64                 `json:"collections"`
	UsageEvents int64                 `json:"usage_events"`
	ByType      map[ContentType]int64 `json:"by_type"`
}

// ContentStats counts catalog rows overall and per content type.
func (s *Store) ContentStats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByType: make(map[ContentType]int64)}

	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM packages`, &st.Packages},
		{`SELECT COUNT(*) FROM content`, &st.Content},
		{`SELECT COUNT(*) FROM collections`, &st.Collections},
		{`SELECT COUNT(*) FROM usage_events`, &st.UsageEvents},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, bwerrors.StorageUnavailable(err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_type, COUNT(*) FROM content GROUP BY content_type`)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()
	for rows.Next() {
		var t ContentType
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		st.ByType[t] = n
	}
	return st, rows.Err()
}
