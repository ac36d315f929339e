package recommend

import (
	"fmt"
	"sync"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/domain/interaction"
)

// Ledger is the in-memory mirror of decided pairs, one map per side.
// A pair is present iff its last decision was accept or reject.
type Ledger struct {
	seekers   decisionSet
	providers decisionSet
}

type decisionSet struct {
	mu sync.RWMutex
	m  map[int64]map[int64]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		seekers:   decisionSet{m: make(map[int64]map[int64]struct{})},
		providers: decisionSet{m: make(map[int64]map[int64]struct{})},
	}
}

func (l *Ledger) side(side interaction.Side) (*decisionSet, error) {
	switch side {
	case interaction.SideSeeker:
		return &l.seekers, nil
	case interaction.SideProvider:
		return &l.providers, nil
	default:
		return nil, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidInteraction, side)
	}
}

// Record stores a swipe. Liked or not, the pair becomes decided.
func (l *Ledger) Record(side interaction.Side, subject, object int64, liked bool) error {
	return l.Update(side, subject, object, interaction.StatusFromLiked(liked))
}

// Update applies a status change. Revert removes the pair; accept and reject insert it.
func (l *Ledger) Update(side interaction.Side, subject, object int64, status interaction.Status) error {
	ds, err := l.side(side)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	switch status {
	case interaction.StatusAccept, interaction.StatusReject:
		set, ok := ds.m[subject]
		if !ok {
			set = make(map[int64]struct{})
			ds.m[subject] = set
		}
		set[object] = struct{}{}
	case interaction.StatusRevert:
		if set, ok := ds.m[subject]; ok {
			delete(set, object)
			if len(set) == 0 {
				delete(ds.m, subject)
			}
		}
	default:
		return fmt.Errorf("%w: status %d", domain.ErrInvalidInteraction, int(status))
	}
	return nil
}

// Apply is Update for a whole event.
func (l *Ledger) Apply(e interaction.Event) error {
	return l.Update(e.Side, e.Subject, e.Object, e.Status)
}

// IsDecided reports whether subject has decided on object.
func (l *Ledger) IsDecided(side interaction.Side, subject, object int64) bool {
	ds, err := l.side(side)
	if err != nil {
		return false
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, ok := ds.m[subject][object]
	return ok
}

// Decided returns a copy of the objects subject has decided on.
func (l *Ledger) Decided(side interaction.Side, subject int64) map[int64]struct{} {
	ds, err := l.side(side)
	if err != nil {
		return nil
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	src := ds.m[subject]
	out := make(map[int64]struct{}, len(src))
	for id := range src {
		out[id] = struct{}{}
	}
	return out
}

// Pairs counts decided pairs on one side.
func (l *Ledger) Pairs(side interaction.Side) int {
	ds, err := l.side(side)
	if err != nil {
		return 0
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	n := 0
	for _, set := range ds.m {
		n += len(set)
	}
	return n
}
