package recommend

import (
	"testing"

	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

func TestProfileStore_Load(t *testing.T) {
	s := NewProfileStore()
	if err := s.Load(testSnapshot()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	sk, ok := s.Seeker(1)
	if !ok {
		t.Fatal("seeker 1 missing")
	}
	if *sk.MinAmount() != 50000 || *sk.MaxAmount() != 200000 {
		t.Errorf("bounds = %v/%v", *sk.MinAmount(), *sk.MaxAmount())
	}
	p, ok := s.Provider(12)
	if !ok {
		t.Fatal("provider 12 missing")
	}
	if p.Amount() != nil {
		t.Errorf("empty amount should parse to nil")
	}
	if _, ok := s.Provider(999); ok {
		t.Error("unknown provider reported present")
	}

	ids := s.ProviderIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ProviderIDs not ascending: %v", ids)
		}
	}
}

func TestProfileStore_LoadIsIdempotent(t *testing.T) {
	s := NewProfileStore()
	_ = s.Load(testSnapshot())
	if err := s.Load(snapshot.Snapshot{}); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(s.SeekerIDs()) != 2 {
		t.Errorf("second Load replaced state: %d seekers", len(s.SeekerIDs()))
	}
}

func TestProfileStore_AllOrNothing(t *testing.T) {
	snap := testSnapshot()
	snap.Seekers = append(snap.Seekers, snapshot.SeekerRow{ID: 0, Name: "broken"})

	s := NewProfileStore()
	if err := s.Load(snap); err == nil {
		t.Fatal("expected error for invalid row")
	}
	if len(s.ProviderIDs()) != 0 || len(s.SeekerIDs()) != 0 {
		t.Error("failed Load left partial state")
	}
	if err := s.Load(testSnapshot()); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}
