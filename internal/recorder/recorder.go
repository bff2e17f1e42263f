package recorder

import (
	"time"

	"MarketDash/internal/model"
)

// ViewSnapshot holds the latest values of one computed dashboard view.
type ViewSnapshot struct {
	Requested  string // ticker the user asked for
	Symbol     string // ticker the bars belong to; differs after a fallback
	Indicators []model.IndicatorKind
	Window     int
	K          float64
	Bars       int
	Close      float64
	Mean       float64
	Upper      float64
	Lower      float64
}

// FetchEvent holds one upstream retrieval outcome.
type FetchEvent struct {
	Kind     string // "history", "company", "active"
	Symbol   string
	Served   string // ticker actually served; empty on failure
	Source   string // fetcher name
	Duration time.Duration
	Err      string
}

// ViewRecord is a stored ViewSnapshot read back from the database.
type ViewRecord struct {
	ID        string
	Timestamp time.Time
	ViewSnapshot
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordView(snap *ViewSnapshot) error
	RecordFetch(evt *FetchEvent) error
	RecordTable(rows []model.ActiveStock) error
	Close() error
}
