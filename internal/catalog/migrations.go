package catalog

import (
	"fmt"
	"strings"
)

// migrate creates all tables if they don't exist.
// Every statement is idempotent so re-opening an existing catalog is safe.
func (s *Store) migrate() error {
	for _, stmt := range bootstrapDDL() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap DDL: %w", err)
		}
	}
	return nil
}

func bootstrapDDL() []string {
	contentTypes := quoteList(ContentTypes)
	deviceTypes := quoteList(DeviceTypes)

	return []string{
		// Vendor content bundles. Path is the natural key; name is unique too.
		`CREATE TABLE IF NOT EXISTS packages (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT UNIQUE NOT NULL,
			vendor       TEXT NOT NULL DEFAULT '',
			version      TEXT NOT NULL DEFAULT '',
			path         TEXT UNIQUE NOT NULL,
			installed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_factory   INTEGER NOT NULL DEFAULT 0
		)`,

		// The unit of searchable material. file_path is the sole identity
		// key. package_id clears on package deletion so orphaned content
		// keeps its history and collection membership.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS content (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			file_path     TEXT UNIQUE NOT NULL,
			content_type  TEXT NOT NULL CHECK(content_type IN (%s)),
			package_id    INTEGER REFERENCES packages(id) ON DELETE SET NULL,
			parent_device TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			category      TEXT NOT NULL DEFAULT '',
			subcategory   TEXT NOT NULL DEFAULT '',
			tags          TEXT NOT NULL DEFAULT '[]',
			creator       TEXT NOT NULL DEFAULT '',
			device_type   TEXT CHECK(device_type IS NULL OR device_type IN (%s)),
			device_uuid   TEXT,
			plugin_id     TEXT NOT NULL DEFAULT '',
			sample_rate   INTEGER NOT NULL DEFAULT 0,
			channels      INTEGER NOT NULL DEFAULT 0,
			duration_ms   INTEGER NOT NULL DEFAULT 0,
			bpm           REAL NOT NULL DEFAULT 0,
			key_signature TEXT NOT NULL DEFAULT '',
			file_size     INTEGER NOT NULL DEFAULT 0,
			file_hash     TEXT NOT NULL DEFAULT '',
			modified_at   DATETIME,
			indexed_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			search_a      TEXT NOT NULL DEFAULT '',
			search_b      TEXT NOT NULL DEFAULT '',
			search_c      TEXT NOT NULL DEFAULT '',
			search_d      TEXT NOT NULL DEFAULT ''
		)`, contentTypes, deviceTypes),

		`CREATE INDEX IF NOT EXISTS idx_content_type ON content(content_type)`,
		`CREATE INDEX IF NOT EXISTS idx_content_package ON content(package_id)`,
		`CREATE INDEX IF NOT EXISTS idx_content_hash ON content(file_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_content_name ON content(name COLLATE NOCASE)`,

		// FTS5 index over the four derived search tiers. External content
		// keeps one copy of the text; the triggers below keep the index in
		// lockstep with the row inside the writing transaction, so readers
		// never observe a record whose derived representation is stale.
		`CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
			search_a,
			search_b,
			search_c,
			search_d,
			content=content,
			content_rowid=id,
			tokenize='unicode61'
		)`,

		`CREATE TRIGGER IF NOT EXISTS content_ai AFTER INSERT ON content BEGIN
			INSERT INTO content_fts(rowid, search_a, search_b, search_c, search_d)
			VALUES (new.id, new.search_a, new.search_b, new.search_c, new.search_d);
		END`,

		`CREATE TRIGGER IF NOT EXISTS content_ad AFTER DELETE ON content BEGIN
			INSERT INTO content_fts(content_fts, rowid, search_a, search_b, search_c, search_d)
			VALUES('delete', old.id, old.search_a, old.search_b, old.search_c, old.search_d);
		END`,

		`CREATE TRIGGER IF NOT EXISTS content_au AFTER UPDATE ON content BEGIN
			INSERT INTO content_fts(content_fts, rowid, search_a, search_b, search_c, search_d)
			VALUES('delete', old.id, old.search_a, old.search_b, old.search_c, old.search_d);
			INSERT INTO content_fts(rowid, search_a, search_b, search_c, search_d)
			VALUES (new.id, new.search_a, new.search_b, new.search_c, new.search_d);
		END`,

		// User-defined groupings. Smart collections store a validated filter
		// specification instead of members.
		`CREATE TABLE IF NOT EXISTS collections (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT UNIQUE NOT NULL,
			kind       TEXT NOT NULL CHECK(kind IN ('static','smart')),
			filter     TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS collection_items (
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			content_id    INTEGER NOT NULL REFERENCES content(id) ON DELETE CASCADE,
			added_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection_id, content_id)
		)`,

		// Append-only action log. Rows are never updated.
		`CREATE TABLE IF NOT EXISTS usage_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content_id INTEGER NOT NULL REFERENCES content(id) ON DELETE CASCADE,
			action     TEXT NOT NULL,
			context    TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_usage_content ON usage_events(content_id)`,
	}
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + string(v) + "'"
	}
	return strings.Join(quoted, ",")
}
