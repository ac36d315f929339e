package profile

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Set is an unordered collection of normalized labels (categories, stages, localities).
type Set map[string]struct{}

// NewSet builds a Set from already-normalized labels.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether label is present.
func (s Set) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Len returns the number of labels.
func (s Set) Len() int { return len(s) }

// Items returns labels in sorted order.
func (s Set) Items() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeLabel applies NFKC and trims surrounding whitespace.
// Full-width and compatibility forms ("ＡＩ", "ﬁntech") collapse to their canonical spelling.
func NormalizeLabel(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// ParseList splits a comma-joined field into a Set. Empty parts are dropped.
func ParseList(raw string) Set {
	s := make(Set)
	for _, part := range strings.Split(raw, ",") {
		if v := NormalizeLabel(part); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

var moneySuffixes = map[byte]float64{
	'k': 1e3,
	'm': 1e6,
	'b': 1e9,
}

// ParseMoney converts "$150k", "$3m", "1,200,000" into a dollar amount.
// Empty or unparsable input yields nil: an unknown amount is not an error.
func ParseMoney(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ToLower(strings.NewReplacer("$", "", ",", "").Replace(s))
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	mult := 1.0
	if m, ok := moneySuffixes[s[len(s)-1]]; ok {
		mult = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	v *= mult
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}
