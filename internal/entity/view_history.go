package entity

import (
	"encoding/json"
	"time"
)

// ViewHistory records the browse path of one frontend session.
type ViewHistory struct {
	ID        int64
	SessionID string
	Path      json.RawMessage // Stored as JSONB in PostgreSQL
	CreatedAt time.Time
}
