package events

import (
	"context"
	"time"
)

type Type string

const (
	TypeVoterRegistered        Type = "voter.registered"
	TypeVoterVerified          Type = "voter.verified"
	TypeBallotCommitted        Type = "ballot.committed"
	TypeReconciliationRequired Type = "ballot.reconciliation_required"
)

type Event interface {
	EventType() Type
	// Key picks the partition. It must never be derived from the voter for
	// ballot events.
	Key() string
}

type VoterRegistered struct {
	VoterID string    `json:"voterId"`
	At      time.Time `json:"at"`
}

func (VoterRegistered) EventType() Type { return TypeVoterRegistered }
func (e VoterRegistered) Key() string { return e.VoterID }

type VoterVerified struct {
	VoterID string    `json:"voterId"`
	Method  string    `json:"method"`
	At      time.Time `json:"at"`
}

func (VoterVerified) EventType() Type { return TypeVoterVerified }
func (e VoterVerified) Key() string { return e.VoterID }

// BallotCommitted deliberately has no voter field.
type BallotCommitted struct {
	IssuanceToken string    `json:"issuanceToken"`
	At            time.Time `json:"at"`
}

func (BallotCommitted) EventType() Type { return TypeBallotCommitted }
func (e BallotCommitted) Key() string { return e.IssuanceToken }

type ReconciliationRequired struct {
	VoterID string    `json:"voterId"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (ReconciliationRequired) EventType() Type { return TypeReconciliationRequired }
func (e ReconciliationRequired) Key() string { return e.VoterID }

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
