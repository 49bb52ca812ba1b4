package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

// LogUsage appends a usage event for a content record. The log is append-only;
// events are never updated.
func (s *Store) LogUsage(ctx context.Context, contentID int64, action string, eventCtx map[string]string) error {
	if action == "" {
		return bwerrors.New(bwerrors.ErrCodeInvalidInput, "usage action is required", nil)
	}

	payload := "{}"
	if len(eventCtx) > 0 {
		data, err := json.Marshal(eventCtx)
		if err != nil {
			return fmt.Errorf("encoding event context: %w", err)
		}
		payload = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (content_id, action, context)
		VALUES (?, ?, ?)`,
		contentID, action, payload)
	return mapWriteError(err, "usage_events")
}

// RecentUsage returns the newest events for a content record, newest first.
func (s *Store) RecentUsage(ctx context.Context, contentID int64, limit int) ([]UsageEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_id, action, context, created_at
		FROM usage_events
		WHERE content_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, contentID, limit)
	if err != nil {
		return nil, bwerrors.StorageUnavailable(err)
	}
	defer rows.Close()

	var out []UsageEvent
	for rows.Next() {
		var e UsageEvent
		var payload string
		if err := rows.Scan(&e.ID, &e.ContentID, &e.Action, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Context); err != nil {
			return nil, fmt.Errorf("decoding event context: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
