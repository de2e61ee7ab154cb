package ballot

import (
	"fmt"
	"sort"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

// Selections maps a position name to the candidate ids chosen for it.
type Selections map[string][]string

type Reason string

const (
	ReasonEmptyBallot            Reason = "EmptyBallot"
	ReasonUnknownPosition        Reason = "UnknownPosition"
	ReasonCandidateNotInPosition Reason = "CandidateNotInPosition"
	ReasonDuplicateSelection     Reason = "DuplicateSelection"
	ReasonTooManySelections      Reason = "TooManySelections"
)

// Error describes why a ballot was rejected. It matches domain.ErrInvalidBallot
// under errors.Is.
type Error struct {
	Reason      Reason
	Position    string
	CandidateID string
}

func (e *Error) Error() string {
	switch {
	case e.CandidateID != "":
		return fmt.Sprintf("invalid ballot: %s (position %q, candidate %s)", e.Reason, e.Position, e.CandidateID)
	case e.Position != "":
		return fmt.Sprintf("invalid ballot: %s (position %q)", e.Reason, e.Position)
	default:
		return fmt.Sprintf("invalid ballot: %s", e.Reason)
	}
}

func (e *Error) Unwrap() error { return domain.ErrInvalidBallot }

// Pick is one accepted selection, resolved against the catalog.
type Pick struct {
	Position    string
	CandidateID domain.CandidateID
}

// Validate checks selections against the catalog rules.
func Validate(sel Selections, cat *Catalog) error {
	_, err := Resolve(sel, cat)
	return err
}

// Resolve validates selections and flattens them into picks ordered by
// position name, keeping the submitted order within a position. Positions
// with an empty selection list are skipped; a ballot with no picks at all is
// rejected.
func Resolve(sel Selections, cat *Catalog) ([]Pick, error) {
	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	sort.Strings(names)

	var picks []Pick
	for _, name := range names {
		ids := sel[name]
		if len(ids) == 0 {
			continue
		}
		pos, ok := cat.Position(name)
		if !ok {
			return nil, &Error{Reason: ReasonUnknownPosition, Position: name}
		}
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			cand, ok := cat.Candidate(id)
			if !ok || cand.Position != pos.Name {
				return nil, &Error{Reason: ReasonCandidateNotInPosition, Position: name, CandidateID: id}
			}
			if _, dup := seen[id]; dup {
				return nil, &Error{Reason: ReasonDuplicateSelection, Position: name, CandidateID: id}
			}
			seen[id] = struct{}{}
		}
		limit := pos.MaxSelections
		if pos.VoteType == domain.VoteTypeSingle {
			limit = 1
		}
		if len(ids) > limit {
			return nil, &Error{Reason: ReasonTooManySelections, Position: name}
		}
		for _, id := range ids {
			cand, _ := cat.Candidate(id)
			picks = append(picks, Pick{Position: name, CandidateID: cand.ID})
		}
	}
	if len(picks) == 0 {
		return nil, &Error{Reason: ReasonEmptyBallot}
	}
	return picks, nil
}
