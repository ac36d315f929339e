package recommend

import (
	"sort"

	"github.com/9Skies9/InvestLink/internal/domain/match"
	"github.com/9Skies9/InvestLink/internal/domain/profile"
)

// DefaultShortlistSize caps how many candidates reach the encoder and scorer.
const DefaultShortlistSize = 30

// Candidate is one counterparty that survived the prefilter.
// Seeker and Provider always hold the pair, whichever side is the subject.
type Candidate struct {
	ID          int64
	Name        string
	Description string
	Seeker      *profile.Seeker
	Provider    *profile.Provider
	Score       float64
}

// Prefilter ranks eligible candidates by structured fit and keeps the top of the list.
type Prefilter struct {
	size              int
	excludedSeekers   map[int64]struct{}
	excludedProviders map[int64]struct{}
}

// NewPrefilter creates a prefilter. Excluded ids are never offered as candidates.
func NewPrefilter(size int, excludedSeekers, excludedProviders []int64) *Prefilter {
	if size <= 0 {
		size = DefaultShortlistSize
	}
	return &Prefilter{
		size:              size,
		excludedSeekers:   idSet(excludedSeekers),
		excludedProviders: idSet(excludedProviders),
	}
}

// ForSeeker shortlists providers for seeker s, skipping the decided ids.
func (f *Prefilter) ForSeeker(store *ProfileStore, s *profile.Seeker, decided map[int64]struct{}) []Candidate {
	var out []Candidate
	for _, id := range store.ProviderIDs() {
		if f.skip(id, decided, f.excludedProviders) {
			continue
		}
		p, _ := store.Provider(id)
		out = append(out, Candidate{
			ID: id, Name: p.Name(), Description: p.Description(),
			Seeker: s, Provider: p,
			Score: match.PrefilterScore(s, p),
		})
	}
	return f.truncate(out)
}

// ForProvider shortlists seekers for provider p, skipping the decided ids.
func (f *Prefilter) ForProvider(store *ProfileStore, p *profile.Provider, decided map[int64]struct{}) []Candidate {
	var out []Candidate
	for _, id := range store.SeekerIDs() {
		if f.skip(id, decided, f.excludedSeekers) {
			continue
		}
		s, _ := store.Seeker(id)
		out = append(out, Candidate{
			ID: id, Name: s.Name(), Description: s.Description(),
			Seeker: s, Provider: p,
			Score: match.PrefilterScore(s, p),
		})
	}
	return f.truncate(out)
}

func (f *Prefilter) skip(id int64, decided, excluded map[int64]struct{}) bool {
	if _, ok := decided[id]; ok {
		return true
	}
	_, ok := excluded[id]
	return ok
}

// truncate sorts by score descending. Input is in ascending id order, so ties stay ordered by id.
func (f *Prefilter) truncate(c []Candidate) []Candidate {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Score > c[j].Score })
	if len(c) > f.size {
		c = c[:f.size]
	}
	return c
}

func idSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
