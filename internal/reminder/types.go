package reminder

import (
	"context"
	"time"
)

// Event is one calendar event extracted from page text or pushed by a live
// client. Records are immutable once created.
type Event struct {
	OriginID   int64  `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"` // YYYY-MM-DD
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	SourcePage string `json:"source_page,omitempty"`
	// Reminder is the lead-time offset string, e.g. "15m". Events without
	// one are calendar-only and never fire.
	Reminder string `json:"reminder,omitempty"`
}

// Notice is a standing reminder rule: fire whenever Condition holds.
type Notice struct {
	PageID     int64  `json:"page_id"`
	SourcePage string `json:"source_page,omitempty"`
	Condition  string `json:"condition"`
	Content    string `json:"content"`
}

// Source supplies the pulled half of the rule set. It is re-queried on every
// tick so page edits are picked up without cache invalidation.
type Source interface {
	Pull(ctx context.Context) (events []Event, notices []Notice, err error)
}

// Sink receives the serialized notification payloads. The hub implements it.
type Sink interface {
	Broadcast(payload []byte) int
}

// Config controls the scheduler.
type Config struct {
	Enabled        bool
	Interval       time.Duration // tick cadence; default 1s
	DedupCacheSize int           // default 100
	RatePerSec     int           // outbound notification cap; default 10
	MaxLiveRecords int           // cap per live-pushed list; default 1000
}

// Fire is one notification about to be broadcast.
type Fire struct {
	Title string
	Body  string
	URL   string
}

// FireEvent is published on the event bus for reminder lifecycle events.
type FireEvent struct {
	Title string    `json:"title"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

type notificationData struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	URL       string `json:"url,omitempty"`
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

type notificationMsg struct {
	Type string           `json:"type"`
	Data notificationData `json:"data"`
}
