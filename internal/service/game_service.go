package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glebk/rehab-clicker/internal/domain"
	"github.com/glebk/rehab-clicker/internal/game"
)

// ErrNoGame is returned for players without a running game
var ErrNoGame = errors.New("no game in progress")

// GameService keeps one game per player and journals what happens in them
type GameService struct {
	playerRepo  domain.PlayerRepository
	historyRepo domain.HistoryRepository
	options     game.Options
	log         zerolog.Logger

	mu    sync.Mutex
	games map[int64]*session
}

type session struct {
	id         string
	game       *game.Game
	lastActive time.Time
}

// NewGameService creates a new GameService. opts is the template for every game.
func NewGameService(playerRepo domain.PlayerRepository, historyRepo domain.HistoryRepository, opts game.Options, log zerolog.Logger) *GameService {
	if opts.Catalog == nil {
		opts.Catalog = domain.DefaultCatalog()
	}
	return &GameService{
		playerRepo:  playerRepo,
		historyRepo: historyRepo,
		options:     opts,
		log:         log,
		games:       make(map[int64]*session),
	}
}

// Catalog returns the substances offered in every game
func (s *GameService) Catalog() *domain.Catalog {
	return s.options.Catalog
}

// RegisterPlayer registers a new player or updates an existing one
func (s *GameService) RegisterPlayer(id int64, username, firstName, lastName string) error {
	existing, err := s.playerRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to check player: %w", err)
	}

	if existing != nil {
		if existing.Username == username && existing.FirstName == firstName && existing.LastName == lastName {
			return nil
		}
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		return s.playerRepo.Update(existing)
	}

	return s.playerRepo.Create(&domain.Player{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// GetPlayer returns a player by ID
func (s *GameService) GetPlayer(id int64) (*domain.Player, error) {
	return s.playerRepo.GetByID(id)
}

// StartGame begins a fresh session for the player, closing any previous one
func (s *GameService) StartGame(playerID int64, p game.Presenter) (*game.Game, error) {
	opts := s.options
	opts.Logger = s.log.With().Int64("player_id", playerID).Logger()

	sess := &session{
		id:         uuid.NewString(),
		game:       game.New(p, opts),
		lastActive: s.now(),
	}

	s.mu.Lock()
	previous := s.games[playerID]
	s.games[playerID] = sess
	s.mu.Unlock()

	if previous != nil {
		previous.game.Close()
	}

	s.record(playerID, sess.id, &domain.HistoryEntry{Kind: domain.EventSessionStarted})
	s.log.Info().Int64("player_id", playerID).Str("session_id", sess.id).Msg("game started")

	sess.game.Refresh()
	return sess.game, nil
}

// EndGame closes the player's game, if any
func (s *GameService) EndGame(playerID int64) {
	s.mu.Lock()
	sess := s.games[playerID]
	delete(s.games, playerID)
	s.mu.Unlock()

	if sess != nil {
		sess.game.Close()
	}
}

// Game returns the player's running game
func (s *GameService) Game(playerID int64) (*game.Game, bool) {
	sess, err := s.session(playerID)
	if err != nil {
		return nil, false
	}
	return sess.game, true
}

func (s *GameService) session(playerID int64) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.games[playerID]
	if !ok {
		return nil, ErrNoGame
	}
	sess.lastActive = s.now()
	return sess, nil
}

func (s *GameService) now() time.Time {
	if s.options.Now != nil {
		return s.options.Now()
	}
	return time.Now()
}

// CloseIdle closes games nobody has touched for maxIdle and returns their players
func (s *GameService) CloseIdle(maxIdle time.Duration) []int64 {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var closed []int64
	var sessions []*session
	for id, sess := range s.games {
		if sess.lastActive.Before(cutoff) {
			closed = append(closed, id)
			sessions = append(sessions, sess)
			delete(s.games, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.game.Close()
	}
	if len(closed) > 0 {
		s.log.Info().Int("count", len(closed)).Msg("closed idle games")
	}
	return closed
}

// Earn adds one unit of money to the player's game
func (s *GameService) Earn(playerID int64) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}
	return sess.game.Earn()
}

// Use buys a substance in the player's game and journals the use
func (s *GameService) Use(playerID int64, id domain.SubstanceID) (domain.UseResult, error) {
	sess, err := s.session(playerID)
	if err != nil {
		return domain.UseResult{}, err
	}

	res, err := sess.game.Use(id)
	if err != nil {
		return res, err
	}

	s.record(playerID, sess.id, &domain.HistoryEntry{
		Kind:        domain.EventUse,
		SubstanceID: id,
		Value:       res.Duration,
	})
	return res, nil
}

// OpenRehab shows the rehab challenge
func (s *GameService) OpenRehab(playerID int64) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}
	return sess.game.OpenRehab()
}

// RehabOpen reports whether the player is in the rehab challenge
func (s *GameService) RehabOpen(playerID int64) bool {
	sess, err := s.session(playerID)
	if err != nil {
		return false
	}
	return sess.game.RehabOpen()
}

// SubmitRehab checks a rehab attempt and journals the outcome
func (s *GameService) SubmitRehab(playerID int64, input string) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}

	withdrawal := sess.game.Snapshot().WithdrawalLevel
	err = sess.game.SubmitRehab(input)

	var violation *game.ViolationError
	switch {
	case err == nil:
		s.record(playerID, sess.id, &domain.HistoryEntry{Kind: domain.EventRehabPassed, Value: withdrawal})
	case errors.Is(err, domain.ErrChallengeFailed):
		s.record(playerID, sess.id, &domain.HistoryEntry{Kind: domain.EventRehabFailed})
	case errors.As(err, &violation):
		s.record(playerID, sess.id, &domain.HistoryEntry{Kind: domain.EventViolation, Detail: string(violation.Violation)})
	}
	return err
}

// CancelRehab closes the rehab challenge
func (s *GameService) CancelRehab(playerID int64) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}
	sess.game.CancelRehab()
	return nil
}

// ReportViolation warns the player about an input-integrity violation and journals it
func (s *GameService) ReportViolation(playerID int64, v game.Violation) error {
	sess, err := s.session(playerID)
	if err != nil {
		return err
	}
	sess.game.ReportViolation(v)
	s.record(playerID, sess.id, &domain.HistoryEntry{Kind: domain.EventViolation, Detail: string(v)})
	return nil
}

// Stats returns the player's lifetime journal totals
func (s *GameService) Stats(playerID int64) (*domain.PlayerStats, error) {
	stats, err := s.historyRepo.Stats(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// Shutdown closes every running game
func (s *GameService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.games))
	for id, sess := range s.games {
		sessions = append(sessions, sess)
		delete(s.games, id)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.game.Close()
	}
}

// record journals an entry; journal failures never interrupt play
func (s *GameService) record(playerID int64, sessionID string, entry *domain.HistoryEntry) {
	entry.PlayerID = playerID
	entry.SessionID = sessionID
	entry.CreatedAt = time.Now().UTC()

	if err := s.historyRepo.Append(entry); err != nil {
		s.log.Error().Err(err).
			Int64("player_id", playerID).
			Str("kind", string(entry.Kind)).
			Msg("failed to record history")
	}
}
