package domain

import "time"

// Player represents a registered player
type Player struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName prefers the username over the first name
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.FirstName
}

// PlayerRepository defines the interface for player storage
type PlayerRepository interface {
	Create(player *Player) error
	GetByID(id int64) (*Player, error)
	Update(player *Player) error
}
