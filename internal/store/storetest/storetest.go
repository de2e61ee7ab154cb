// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

// New returns a migrated store over a private in-memory database. The pool
// is capped at one connection so concurrent callers serialize the way they
// would on row locks.
func New(t testing.TB) *store.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), store.GormConfig(false, false))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := store.New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

// Election seeds the catalog used across tests: President (single) with
// candidates A and B, Senate (multiple, max 2) with candidates A, B and C.
type Election struct {
	President  domain.Position
	Senate     domain.Position
	PresidentA domain.Candidate
	PresidentB domain.Candidate
	SenateA    domain.Candidate
	SenateB    domain.Candidate
	SenateC    domain.Candidate
}

func SeedElection(t testing.TB, s *store.Store) *Election {
	t.Helper()
	ctx := context.Background()
	e := &Election{
		President: domain.Position{Name: "President", VoteType: domain.VoteTypeSingle, MaxSelections: 1},
		Senate:    domain.Position{Name: "Senate", VoteType: domain.VoteTypeMultiple, MaxSelections: 2},
	}
	for _, p := range []*domain.Position{&e.President, &e.Senate} {
		if err := s.Catalog().CreatePosition(ctx, p); err != nil {
			t.Fatalf("seed position: %v", err)
		}
	}
	e.PresidentA = domain.Candidate{Name: "Ada", Position: "President"}
	e.PresidentB = domain.Candidate{Name: "Bola", Position: "President"}
	e.SenateA = domain.Candidate{Name: "Chidi", Position: "Senate"}
	e.SenateB = domain.Candidate{Name: "Dayo", Position: "Senate"}
	e.SenateC = domain.Candidate{Name: "Efe", Position: "Senate"}
	for _, c := range []*domain.Candidate{&e.PresidentA, &e.PresidentB, &e.SenateA, &e.SenateB, &e.SenateC} {
		if err := s.Catalog().CreateCandidate(ctx, c); err != nil {
			t.Fatalf("seed candidate: %v", err)
		}
	}
	return e
}

// SeedVoter registers a voter with the given matric number.
func SeedVoter(t testing.TB, s *store.Store, matric string, verified bool) *domain.Voter {
	t.Helper()
	v := &domain.Voter{
		Matric:   matric,
		Name:     "Voter " + matric,
		Email:    matric + "@students.example.edu",
		Verified: verified,
	}
	if err := s.Voters().Create(context.Background(), v); err != nil {
		t.Fatalf("seed voter: %v", err)
	}
	return v
}
