package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebk/rehab-clicker/internal/domain"
)

func newState(money int) *domain.SessionState {
	s := domain.NewSessionState(domain.DefaultCatalog())
	for i := 0; i < money; i++ {
		s.Earn()
	}
	return s
}

func TestInitialState(t *testing.T) {
	s := newState(0)
	assert.Equal(t, 0, s.Money())
	assert.Equal(t, 0, s.WithdrawalLevel())
	assert.Equal(t, 0, s.AbuseCount())
	assert.False(t, s.EffectActive())
	_, ok := s.LastUsed()
	assert.False(t, ok)
	for _, sub := range domain.DefaultCatalog().All() {
		assert.Equal(t, sub.BaseEffect, s.Tolerance(sub.ID))
	}
}

func TestEarnThenUseAlcohol(t *testing.T) {
	s := newState(3)
	require.Equal(t, 3, s.Money())

	res, err := s.Use(domain.Alcohol)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Money())
	assert.Equal(t, 1, s.AbuseCount())
	assert.True(t, s.EffectActive())
	assert.Equal(t, 1, s.WithdrawalLevel())
	assert.Equal(t, 4, s.Tolerance(domain.Alcohol))
	assert.Equal(t, 5, res.Duration)
	assert.Equal(t, 1, res.WithdrawalDelta)
	assert.Equal(t, "Alcohol", res.Substance.Name)
	last, ok := s.LastUsed()
	assert.True(t, ok)
	assert.Equal(t, domain.Alcohol, last)
}

func TestUseRefusedWhileEffectActive(t *testing.T) {
	s := newState(100)
	_, err := s.Use(domain.Alcohol)
	require.NoError(t, err)

	before := s.Snapshot()
	for _, sub := range domain.DefaultCatalog().All() {
		_, err := s.Use(sub.ID)
		require.ErrorIs(t, err, domain.ErrRefused)
		reason, ok := domain.RefusalReasonOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.ReasonEffectActive, reason)
	}
	assert.Equal(t, before, s.Snapshot())
}

func TestUseRefusedWithoutFunds(t *testing.T) {
	s := newState(2)
	before := s.Snapshot()

	_, err := s.Use(domain.Alcohol)
	reason, ok := domain.RefusalReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonInsufficientFunds, reason)
	assert.Equal(t, before, s.Snapshot())
}

func TestUseUnknownSubstance(t *testing.T) {
	s := newState(50)
	_, err := s.Use("tea")
	assert.True(t, errors.Is(err, domain.ErrSubstanceNotFound))
	assert.False(t, errors.Is(err, domain.ErrRefused))
	assert.Equal(t, 50, s.Money())
}

func TestMoneyNeverNegative(t *testing.T) {
	s := newState(0)
	ids := []domain.SubstanceID{domain.Heroin, domain.Alcohol, domain.Cocaine, domain.Marijuana}
	for round := 0; round < 200; round++ {
		if round%3 == 0 {
			s.Earn()
		}
		_, _ = s.Use(ids[round%len(ids)])
		require.GreaterOrEqual(t, s.Money(), 0)
		s.EndEffect()
	}
}

func TestToleranceDecaysToFloor(t *testing.T) {
	s := newState(1000)
	var durations []int
	for i := 0; i < 8; i++ {
		res, err := s.Use(domain.Alcohol)
		require.NoError(t, err)
		durations = append(durations, res.Duration)
		s.EndEffect()
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 1, 1, 1}, durations)
	assert.Equal(t, 1, s.Tolerance(domain.Alcohol))
	// other substances are untouched
	assert.Equal(t, 7, s.Tolerance(domain.Marijuana))
}

func TestWithdrawalDelta(t *testing.T) {
	s := newState(1000)
	steps := []struct {
		id    domain.SubstanceID
		delta int
	}{
		{domain.Alcohol, 1},
		{domain.Alcohol, 1},
		{domain.Cocaine, 2},
		{domain.Heroin, 2},
		{domain.Heroin, 1},
		{domain.Alcohol, 2},
	}
	level := 0
	for i, step := range steps {
		res, err := s.Use(step.id)
		require.NoError(t, err, "step %d", i)
		level += step.delta
		assert.Equal(t, step.delta, res.WithdrawalDelta, "step %d", i)
		assert.Equal(t, level, s.WithdrawalLevel(), "step %d", i)
		assert.Equal(t, i+1, s.AbuseCount(), "step %d", i)
		s.EndEffect()
	}
}

func TestRehabThresholdDoesNotRelatch(t *testing.T) {
	s := newState(1000)
	for i := 1; i <= 6; i++ {
		res, err := s.Use(domain.Alcohol)
		require.NoError(t, err)
		s.EndEffect()
		assert.Equal(t, i >= domain.RehabThreshold, s.RehabAvailable(), "after %d uses", i)
		assert.Equal(t, i == domain.RehabThreshold, res.RehabUnlocked, "after %d uses", i)
	}
}

func TestCompleteRehabResetsEverythingButMoney(t *testing.T) {
	s := newState(1000)
	for _, id := range []domain.SubstanceID{domain.Alcohol, domain.Heroin, domain.Heroin, domain.Cocaine, domain.Marijuana} {
		_, err := s.Use(id)
		require.NoError(t, err)
		s.EndEffect()
	}
	money := s.Money()

	s.CompleteRehab()

	assert.Equal(t, 0, s.WithdrawalLevel())
	assert.Equal(t, 0, s.AbuseCount())
	assert.False(t, s.RehabAvailable())
	_, ok := s.LastUsed()
	assert.False(t, ok)
	for _, sub := range domain.DefaultCatalog().All() {
		assert.Equal(t, sub.BaseEffect, s.Tolerance(sub.ID))
	}
	assert.Equal(t, money, s.Money())

	// first use after rehab is not a switch
	res, err := s.Use(domain.Heroin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.WithdrawalDelta)
	assert.Equal(t, 11, res.Duration)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newState(10)
	snap := s.Snapshot()
	snap.Tolerance[domain.Alcohol] = 99

	assert.Equal(t, 5, s.Tolerance(domain.Alcohol))
	alcohol, err := s.Catalog().Lookup(domain.Alcohol)
	require.NoError(t, err)
	assert.True(t, snap.Affordable(alcohol))
	assert.True(t, s.CanUse(alcohol))

	_, err = s.Use(domain.Alcohol)
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Affordable(alcohol))
}
