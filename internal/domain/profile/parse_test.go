package profile

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$150k", 150000},
		{"$3m", 3_000_000},
		{"200000", 200000},
		{"$1,200,000", 1_200_000},
		{" 2.5M ", 2_500_000},
		{"$1b", 1e9},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseMoney(tt.in)
			if got == nil {
				t.Fatalf("ParseMoney(%q) = nil, want %v", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseMoney(%q) = %v, want %v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestParseMoney_Unknown(t *testing.T) {
	for _, in := range []string{"", "   ", "$", "k", "abc", "10x", "nan", "inf", "$-", "1e308m", "-1e308b"} {
		if got := ParseMoney(in); got != nil {
			t.Errorf("ParseMoney(%q) = %v, want nil", in, *got)
		}
	}
}

func TestParseList(t *testing.T) {
	s := ParseList(" AI, Fintech ,,  ,AI")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (%v)", s.Len(), s.Items())
	}
	if !s.Has("AI") || !s.Has("Fintech") {
		t.Errorf("Items() = %v", s.Items())
	}
}

func TestParseList_Empty(t *testing.T) {
	if s := ParseList(""); s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestParseList_NFKC(t *testing.T) {
	s := ParseList("ＡＩ,ﬁntech")
	if !s.Has("AI") {
		t.Errorf("full-width label not normalized: %v", s.Items())
	}
	if !s.Has("fintech") {
		t.Errorf("ligature not normalized: %v", s.Items())
	}
}

func TestSet_ItemsSorted(t *testing.T) {
	got := NewSet("b", "c", "a").Items()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
}
