package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebk/rehab-clicker/internal/domain"
)

// PlayerRepository implements domain.PlayerRepository using SQLite
type PlayerRepository struct {
	db *Database
}

// NewPlayerRepository creates a new PlayerRepository
func NewPlayerRepository(db *Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create creates a new player
func (r *PlayerRepository) Create(player *domain.Player) error {
	query := `
		INSERT INTO players (id, username, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	_, err := r.db.GetDB().Exec(query,
		player.ID,
		player.Username,
		player.FirstName,
		player.LastName,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	player.CreatedAt = now
	player.UpdatedAt = now

	return nil
}

// GetByID retrieves a player by ID, or nil if there is none
func (r *PlayerRepository) GetByID(id int64) (*domain.Player, error) {
	query := `
		SELECT id, username, first_name, last_name, created_at, updated_at
		FROM players
		WHERE id = ?
	`

	player := &domain.Player{}
	var lastName sql.NullString

	err := r.db.GetDB().QueryRow(query, id).Scan(
		&player.ID,
		&player.Username,
		&player.FirstName,
		&lastName,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if lastName.Valid {
		player.LastName = lastName.String
	}

	return player, nil
}

// Update updates a player's names
func (r *PlayerRepository) Update(player *domain.Player) error {
	query := `
		UPDATE players
		SET username = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now().UTC()
	_, err := r.db.GetDB().Exec(query,
		player.Username,
		player.FirstName,
		player.LastName,
		now,
		player.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	player.UpdatedAt = now

	return nil
}
