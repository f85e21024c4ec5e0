package request

import "encoding/json"

// ScrapeRequest is the payload for category and product scrape triggers.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ViewHistoryRequest is the payload for recording a session browse path.
type ViewHistoryRequest struct {
	SessionID string          `json:"session_id"`
	Path      json.RawMessage `json:"path"`
}
