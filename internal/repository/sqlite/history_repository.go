package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebk/rehab-clicker/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository using SQLite
type HistoryRepository struct {
	db *Database
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *Database) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores a journal entry
func (r *HistoryRepository) Append(entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO history (session_id, player_id, kind, substance_id, value, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.GetDB().Exec(query,
		entry.SessionID,
		entry.PlayerID,
		entry.Kind,
		nullString(string(entry.SubstanceID)),
		entry.Value,
		nullString(entry.Detail),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history ID: %w", err)
	}
	entry.ID = id

	return nil
}

// ListBySession returns a session's entries in insertion order
func (r *HistoryRepository) ListBySession(sessionID string) ([]*domain.HistoryEntry, error) {
	query := `
		SELECT id, session_id, player_id, kind, substance_id, value, detail, created_at
		FROM history
		WHERE session_id = ?
		ORDER BY id
	`

	rows, err := r.db.GetDB().Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry

	for rows.Next() {
		entry := &domain.HistoryEntry{}
		var substanceID, detail sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.PlayerID,
			&entry.Kind,
			&substanceID,
			&entry.Value,
			&detail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}

		entry.SubstanceID = domain.SubstanceID(substanceID.String)
		entry.Detail = detail.String

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return entries, nil
}

// Stats aggregates every entry recorded for a player
func (r *HistoryRepository) Stats(playerID int64) (*domain.PlayerStats, error) {
	query := `
		SELECT kind, COALESCE(substance_id, ''), COUNT(*)
		FROM history
		WHERE player_id = ?
		GROUP BY kind, substance_id
	`

	rows, err := r.db.GetDB().Query(query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.PlayerStats{
		UsesBySubstance: make(map[domain.SubstanceID]int),
	}

	for rows.Next() {
		var kind domain.EventKind
		var substanceID string
		var count int

		if err := rows.Scan(&kind, &substanceID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		switch kind {
		case domain.EventSessionStarted:
			stats.Sessions += count
		case domain.EventUse:
			stats.Uses += count
			stats.UsesBySubstance[domain.SubstanceID(substanceID)] += count
		case domain.EventRehabPassed:
			stats.RehabPassed += count
		case domain.EventRehabFailed:
			stats.RehabFailed += count
		case domain.EventViolation:
			stats.Violations += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}

	last, err := r.lastEventAt(playerID, domain.EventRehabPassed)
	if err != nil {
		return nil, err
	}
	stats.LastRehabAt = last

	return stats, nil
}

func (r *HistoryRepository) lastEventAt(playerID int64, kind domain.EventKind) (*time.Time, error) {
	query := `
		SELECT created_at
		FROM history
		WHERE player_id = ? AND kind = ?
		ORDER BY id DESC
		LIMIT 1
	`

	var at time.Time
	err := r.db.GetDB().QueryRow(query, playerID, kind).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last %s: %w", kind, err)
	}

	return &at, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
