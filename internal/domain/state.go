package domain

import "time"

// RehabThreshold is the abuse count at which rehab becomes available
const RehabThreshold = 5

// SessionState is the mutable state of one game session.
// It is not safe for concurrent use; the owning game serialises access.
type SessionState struct {
	catalog *Catalog

	money           int
	withdrawalLevel int
	abuseCount      int
	lastUsed        SubstanceID
	tolerance       map[SubstanceID]int
	effectActive    bool
}

// UseResult describes a successful use
type UseResult struct {
	Substance Substance
	// Duration is the tolerance read before it was decremented, in seconds
	Duration        int
	WithdrawalDelta int
	// RehabUnlocked is set on the use that brings the abuse count to the threshold
	RehabUnlocked bool
}

// EffectDuration returns Duration as a time.Duration
func (r UseResult) EffectDuration() time.Duration {
	return time.Duration(r.Duration) * time.Second
}

// NewSessionState creates a fresh state with base tolerances
func NewSessionState(catalog *Catalog) *SessionState {
	s := &SessionState{
		catalog:   catalog,
		tolerance: make(map[SubstanceID]int, catalog.Len()),
	}
	s.resetTolerance()
	return s
}

func (s *SessionState) resetTolerance() {
	for _, sub := range s.catalog.items {
		s.tolerance[sub.ID] = sub.BaseEffect
	}
}

// Catalog returns the catalog the state was built from
func (s *SessionState) Catalog() *Catalog {
	return s.catalog
}

// Earn adds one unit of money
func (s *SessionState) Earn() {
	s.money++
}

// Use spends money on a substance and opens the effect window.
// Refusals leave the state untouched.
func (s *SessionState) Use(id SubstanceID) (UseResult, error) {
	sub, err := s.catalog.Lookup(id)
	if err != nil {
		return UseResult{}, err
	}
	if s.effectActive {
		return UseResult{}, Refused(ReasonEffectActive)
	}
	if s.money < sub.Price {
		return UseResult{}, Refused(ReasonInsufficientFunds)
	}

	s.money -= sub.Price
	s.abuseCount++
	s.effectActive = true

	delta := 1
	if s.lastUsed != "" && s.lastUsed != id {
		delta = 2
	}
	s.withdrawalLevel += delta

	duration := s.tolerance[id]
	if s.tolerance[id] > 1 {
		s.tolerance[id]--
	}
	s.lastUsed = id

	return UseResult{
		Substance:       sub,
		Duration:        duration,
		WithdrawalDelta: delta,
		RehabUnlocked:   s.abuseCount == RehabThreshold,
	}, nil
}

// EndEffect closes the effect window
func (s *SessionState) EndEffect() {
	s.effectActive = false
}

// CompleteRehab clears withdrawal, abuse history and tolerance. Money is kept.
func (s *SessionState) CompleteRehab() {
	s.withdrawalLevel = 0
	s.abuseCount = 0
	s.lastUsed = ""
	s.resetTolerance()
}

// CanUse reports whether Use would succeed for a known substance
func (s *SessionState) CanUse(sub Substance) bool {
	return !s.effectActive && s.money >= sub.Price
}

// RehabAvailable reports whether the rehab challenge may be opened.
// Once reached it stays available until a successful rehab.
func (s *SessionState) RehabAvailable() bool {
	return s.abuseCount >= RehabThreshold
}

func (s *SessionState) Money() int { return s.money }
func (s *SessionState) WithdrawalLevel() int { return s.withdrawalLevel }
func (s *SessionState) AbuseCount() int { return s.abuseCount }
func (s *SessionState) EffectActive() bool { return s.effectActive }

// LastUsed returns the last used substance id, if any
func (s *SessionState) LastUsed() (SubstanceID, bool) {
	return s.lastUsed, s.lastUsed != ""
}

// Tolerance returns the current effect length for id, or 0 for unknown ids
func (s *SessionState) Tolerance(id SubstanceID) int {
	return s.tolerance[id]
}

// Snapshot copies the state for presenters
func (s *SessionState) Snapshot() Snapshot {
	tolerance := make(map[SubstanceID]int, len(s.tolerance))
	for id, v := range s.tolerance {
		tolerance[id] = v
	}
	return Snapshot{
		Money:           s.money,
		WithdrawalLevel: s.withdrawalLevel,
		AbuseCount:      s.abuseCount,
		LastUsed:        s.lastUsed,
		Tolerance:       tolerance,
		EffectActive:    s.effectActive,
		RehabAvailable:  s.RehabAvailable(),
	}
}

// Snapshot is a read-only copy of SessionState
type Snapshot struct {
	Money           int
	WithdrawalLevel int
	AbuseCount      int
	LastUsed        SubstanceID
	Tolerance       map[SubstanceID]int
	EffectActive    bool
	RehabAvailable  bool
}

// Affordable reports whether the substance can be bought right now
func (s Snapshot) Affordable(sub Substance) bool {
	return !s.EffectActive && s.Money >= sub.Price
}
