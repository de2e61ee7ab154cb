package ballot

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

var ErrCatalogInconsistent = errors.New("ballot catalog inconsistent")

// Catalog is an immutable snapshot of positions and candidates used to
// validate one ballot submission.
type Catalog struct {
	positions  map[string]domain.Position
	candidates map[string]domain.Candidate
	posOrder   []string
	candOrder  []string
}

// NewCatalog indexes positions by name and candidates by id. A candidate that
// references a missing position, or a position with impossible selection
// rules, makes the whole snapshot unusable.
func NewCatalog(positions []domain.Position, candidates []domain.Candidate) (*Catalog, error) {
	c := &Catalog{
		positions:  make(map[string]domain.Position, len(positions)),
		candidates: make(map[string]domain.Candidate, len(candidates)),
	}
	for _, p := range positions {
		if !p.VoteType.Valid() {
			return nil, fmt.Errorf("%w: position %q has vote type %q", ErrCatalogInconsistent, p.Name, p.VoteType)
		}
		if p.MaxSelections < 1 {
			return nil, fmt.Errorf("%w: position %q allows %d selections", ErrCatalogInconsistent, p.Name, p.MaxSelections)
		}
		if p.VoteType == domain.VoteTypeSingle && p.MaxSelections != 1 {
			return nil, fmt.Errorf("%w: single position %q must allow exactly one selection", ErrCatalogInconsistent, p.Name)
		}
		if _, dup := c.positions[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate position %q", ErrCatalogInconsistent, p.Name)
		}
		c.positions[p.Name] = p
		c.posOrder = append(c.posOrder, p.Name)
	}
	for _, cand := range candidates {
		if _, ok := c.positions[cand.Position]; !ok {
			return nil, fmt.Errorf("%w: candidate %s references unknown position %q", ErrCatalogInconsistent, cand.ID, cand.Position)
		}
		id := cand.ID.String()
		c.candidates[id] = cand
		c.candOrder = append(c.candOrder, id)
	}
	sort.Strings(c.posOrder)
	return c, nil
}

func (c *Catalog) Position(name string) (domain.Position, bool) {
	p, ok := c.positions[name]
	return p, ok
}

func (c *Catalog) Candidate(id string) (domain.Candidate, bool) {
	cand, ok := c.candidates[id]
	return cand, ok
}

// Positions returns positions ordered by name.
func (c *Catalog) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(c.posOrder))
	for _, name := range c.posOrder {
		out = append(out, c.positions[name])
	}
	return out
}

// Candidates returns candidates in the order they were loaded.
func (c *Catalog) Candidates() []domain.Candidate {
	out := make([]domain.Candidate, 0, len(c.candOrder))
	for _, id := range c.candOrder {
		out = append(out, c.candidates[id])
	}
	return out
}
