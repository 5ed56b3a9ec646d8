package domain

import "time"

// EventKind classifies a history entry
type EventKind string

const (
	EventSessionStarted EventKind = "session_started"
	EventUse            EventKind = "use"
	EventRehabPassed    EventKind = "rehab_passed"
	EventRehabFailed    EventKind = "rehab_failed"
	EventViolation      EventKind = "violation"
)

// HistoryEntry is one journal line. The journal is never replayed into a session.
type HistoryEntry struct {
	ID          int64
	SessionID   string
	PlayerID    int64
	Kind        EventKind
	SubstanceID SubstanceID
	// Value is kind specific: effect seconds for uses, withdrawal level before a passed rehab
	Value     int
	Detail    string
	CreatedAt time.Time
}

// PlayerStats aggregates a player's journal
type PlayerStats struct {
	Sessions        int
	Uses            int
	UsesBySubstance map[SubstanceID]int
	RehabPassed     int
	RehabFailed     int
	Violations      int
	LastRehabAt     *time.Time
}

// HistoryRepository defines the interface for journal storage
type HistoryRepository interface {
	Append(entry *HistoryEntry) error
	ListBySession(sessionID string) ([]*HistoryEntry, error)
	Stats(playerID int64) (*PlayerStats, error)
}
