package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebk/rehab-clicker/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := domain.DefaultCatalog()
	all := c.All()
	require.Len(t, all, 4)

	ids := make([]domain.SubstanceID, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []domain.SubstanceID{domain.Alcohol, domain.Marijuana, domain.Cocaine, domain.Heroin}, ids)

	heroin, err := c.Lookup(domain.Heroin)
	require.NoError(t, err)
	assert.Equal(t, 20, heroin.Price)
	assert.Equal(t, 11, heroin.BaseEffect)
}

func TestCatalogLookupUnknown(t *testing.T) {
	_, err := domain.DefaultCatalog().Lookup("coffee")
	assert.ErrorIs(t, err, domain.ErrSubstanceNotFound)
	assert.Contains(t, err.Error(), "coffee")
}

func TestCatalogAllReturnsCopy(t *testing.T) {
	c := domain.DefaultCatalog()
	all := c.All()
	all[0].Price = 1000

	alcohol, err := c.Lookup(domain.Alcohol)
	require.NoError(t, err)
	assert.Equal(t, 3, alcohol.Price)
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		subs []domain.Substance
	}{
		{"empty", nil},
		{"missing id", []domain.Substance{{Name: "x", Price: 1, BaseEffect: 1}}},
		{"duplicate", []domain.Substance{
			{ID: "a", Price: 1, BaseEffect: 1},
			{ID: "a", Price: 2, BaseEffect: 2},
		}},
		{"zero price", []domain.Substance{{ID: "a", Price: 0, BaseEffect: 1}}},
		{"zero effect", []domain.Substance{{ID: "a", Price: 1, BaseEffect: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewCatalog(tt.subs...)
			assert.Error(t, err)
		})
	}
}
