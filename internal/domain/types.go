package domain

import "github.com/google/uuid"

type VoterID = uuid.UUID
type SessionID = uuid.UUID
type CandidateID = uuid.UUID
type PositionID = uuid.UUID
