package recommend

import (
	"fmt"
	"slices"

	"github.com/9Skies9/InvestLink/internal/domain/profile"
	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

// ProfileStore holds parsed providers and seekers. It is read-only once loaded.
type ProfileStore struct {
	loaded      bool
	providers   map[int64]*profile.Provider
	seekers     map[int64]*profile.Seeker
	providerIDs []int64
	seekerIDs   []int64
}

// NewProfileStore returns an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// Load parses the snapshot. The store is untouched if any row is invalid,
// and calls after the first success are no-ops.
func (s *ProfileStore) Load(snap snapshot.Snapshot) error {
	if s.loaded {
		return nil
	}

	providers := make(map[int64]*profile.Provider, len(snap.Providers))
	for _, row := range snap.Providers {
		p, err := profile.NewProvider(
			row.ID, row.Name, row.Description,
			profile.ParseList(row.Categories), row.Stage, row.Locality,
			profile.ParseMoney(row.Amount),
		)
		if err != nil {
			return fmt.Errorf("provider row: %w", err)
		}
		providers[p.ID()] = &p
	}

	seekers := make(map[int64]*profile.Seeker, len(snap.Seekers))
	for _, row := range snap.Seekers {
		sk, err := profile.NewSeeker(
			row.ID, row.Name, row.Description,
			profile.ParseList(row.Categories), profile.ParseList(row.Stages), profile.ParseList(row.Localities),
			profile.ParseMoney(row.MinAmount), profile.ParseMoney(row.MaxAmount),
		)
		if err != nil {
			return fmt.Errorf("seeker row: %w", err)
		}
		seekers[sk.ID()] = &sk
	}

	s.providers = providers
	s.seekers = seekers
	s.providerIDs = sortedKeys(providers)
	s.seekerIDs = sortedKeys(seekers)
	s.loaded = true
	return nil
}

// Provider looks up a provider by id.
func (s *ProfileStore) Provider(id int64) (*profile.Provider, bool) {
	p, ok := s.providers[id]
	return p, ok
}

// Seeker looks up a seeker by id.
func (s *ProfileStore) Seeker(id int64) (*profile.Seeker, bool) {
	sk, ok := s.seekers[id]
	return sk, ok
}

// ProviderIDs returns all provider ids in ascending order. Callers must not modify it.
func (s *ProfileStore) ProviderIDs() []int64 { return s.providerIDs }

// SeekerIDs returns all seeker ids in ascending order. Callers must not modify it.
func (s *ProfileStore) SeekerIDs() []int64 { return s.seekerIDs }

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
