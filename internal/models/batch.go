package models

import (
	"encoding/json"
	"time"
)

// SourceRole says whether a source may create games or only attach odds to them
type SourceRole string

const (
	RoleCreating  SourceRole = "creating"
	RoleAttaching SourceRole = "attaching"
)

// Known sources
const (
	SourcePolymarket = "polymarket"
	SourceKalshi     = "kalshi"
	SourceOddsAPI    = "oddsapi"
)

// Payload kinds carried by a SourceMessage
const (
	PayloadOdds   = "odds"
	PayloadScores = "scores"
)

// SourceMessage is the envelope upstream fetchers publish (Kafka or HTTP)
type SourceMessage struct {
	Source    string          `json:"source"`
	Kind      string          `json:"kind"`
	Region    string          `json:"region,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
	BatchID   string          `json:"batch_id"`
	Payload   json.RawMessage `json:"payload"`
}

// SourceBatch is the normalized content of one or more source messages
type SourceBatch struct {
	Source      string           `json:"source"`
	Role        SourceRole       `json:"role"`
	BatchID     string           `json:"batch_id"`
	FetchedAt   time.Time        `json:"fetched_at"`
	Events      []EventCandidate `json:"events,omitempty"`
	Completions []GameCompletion `json:"completions,omitempty"`
	Skipped     int              `json:"skipped"` // source items dropped during normalization
}

// SourceFailure records a source payload that could not be normalized
type SourceFailure struct {
	Source string    `json:"source"`
	Err    string    `json:"error"`
	At     time.Time `json:"at"`
}

// CycleReport summarizes what one collection cycle did
type CycleReport struct {
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	GamesCompleted     int           `json:"games_completed"`
	GamesReconciled    int           `json:"games_reconciled"`
	SnapshotsInserted  int           `json:"snapshots_inserted"`
	SnapshotsDuplicate int           `json:"snapshots_duplicate"`
	SnapshotsStale     int           `json:"snapshots_stale"`
	EventsUnmatched    int           `json:"events_unmatched"`
	ItemsSkipped       int           `json:"items_skipped"`
	SourceFailures     []string      `json:"source_failures,omitempty"`
}
