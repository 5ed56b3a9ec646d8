package domain

import (
	"errors"
	"fmt"
)

// SubstanceID identifies a substance in the catalog
type SubstanceID string

const (
	Alcohol   SubstanceID = "alcohol"
	Marijuana SubstanceID = "marijuana"
	Cocaine   SubstanceID = "cocaine"
	Heroin    SubstanceID = "heroin"
)

// Substance is an immutable catalog entry
type Substance struct {
	ID    SubstanceID
	Name  string
	Icon  string
	Price int
	// BaseEffect is the effect length in seconds before any tolerance builds up
	BaseEffect int
}

// Catalog is the fixed list of substances offered in a game
type Catalog struct {
	items []Substance
	index map[SubstanceID]int
}

// NewCatalog validates the given substances and builds a catalog preserving their order
func NewCatalog(substances ...Substance) (*Catalog, error) {
	if len(substances) == 0 {
		return nil, errors.New("catalog is empty")
	}

	c := &Catalog{
		items: make([]Substance, 0, len(substances)),
		index: make(map[SubstanceID]int, len(substances)),
	}

	for _, s := range substances {
		if s.ID == "" {
			return nil, errors.New("substance id is empty")
		}
		if _, exists := c.index[s.ID]; exists {
			return nil, fmt.Errorf("duplicate substance %q", s.ID)
		}
		if s.Price <= 0 {
			return nil, fmt.Errorf("substance %q: price must be positive", s.ID)
		}
		if s.BaseEffect <= 0 {
			return nil, fmt.Errorf("substance %q: base effect must be positive", s.ID)
		}
		c.index[s.ID] = len(c.items)
		c.items = append(c.items, s)
	}

	return c, nil
}

// DefaultCatalog returns the four substances of the game
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Substance{ID: Alcohol, Name: "Alcohol", Icon: "🍺", Price: 3, BaseEffect: 5},
		Substance{ID: Marijuana, Name: "Marijuana", Icon: "🌿", Price: 5, BaseEffect: 7},
		Substance{ID: Cocaine, Name: "Cocaine", Icon: "❄️", Price: 10, BaseEffect: 9},
		Substance{ID: Heroin, Name: "Heroin", Icon: "💉", Price: 20, BaseEffect: 11},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the substance with the given id
func (c *Catalog) Lookup(id SubstanceID) (Substance, error) {
	i, ok := c.index[id]
	if !ok {
		return Substance{}, fmt.Errorf("substance %q: %w", id, ErrSubstanceNotFound)
	}
	return c.items[i], nil
}

// All returns the substances in catalog order
func (c *Catalog) All() []Substance {
	out := make([]Substance, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of substances
func (c *Catalog) Len() int {
	return len(c.items)
}
