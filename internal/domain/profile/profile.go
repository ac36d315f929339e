package profile

import "fmt"

// Provider is a company raising capital. It is the item recommended to seekers.
type Provider struct {
	id          int64
	name        string
	description string
	categories  Set
	stage       string
	locality    string
	amount      *float64
}

// NewProvider validates and creates a Provider. Stage and locality are normalized like list labels.
func NewProvider(id int64, name, description string, categories Set, stage, locality string, amount *float64) (Provider, error) {
	if id <= 0 {
		return Provider{}, fmt.Errorf("provider ID must be positive, got %d", id)
	}
	if categories == nil {
		categories = Set{}
	}
	return Provider{
		id:          id,
		name:        name,
		description: description,
		categories:  categories,
		stage:       NormalizeLabel(stage),
		locality:    NormalizeLabel(locality),
		amount:      cloneAmount(amount),
	}, nil
}

// ID returns the provider identifier.
func (p *Provider) ID() int64 { return p.id }

// Name returns the display name.
func (p *Provider) Name() string { return p.name }

// Description returns the free-text pitch.
func (p *Provider) Description() string { return p.description }

// Categories returns the industry tags.
func (p *Provider) Categories() Set { return p.categories }

// Stage returns the single funding stage label.
func (p *Provider) Stage() string { return p.stage }

// Locality returns the single location label.
func (p *Provider) Locality() string { return p.locality }

// Amount returns the requested amount, or nil when unknown.
func (p *Provider) Amount() *float64 { return p.amount }

// Seeker is an investor looking for deals.
type Seeker struct {
	id          int64
	name        string
	description string
	categories  Set
	stages      Set
	localities  Set
	minAmount   *float64
	maxAmount   *float64
}

// NewSeeker validates and creates a Seeker. Either bound may be nil.
func NewSeeker(id int64, name, description string, categories, stages, localities Set, minAmount, maxAmount *float64) (Seeker, error) {
	if id <= 0 {
		return Seeker{}, fmt.Errorf("seeker ID must be positive, got %d", id)
	}
	return Seeker{
		id:          id,
		name:        name,
		description: description,
		categories:  orEmpty(categories),
		stages:      orEmpty(stages),
		localities:  orEmpty(localities),
		minAmount:   cloneAmount(minAmount),
		maxAmount:   cloneAmount(maxAmount),
	}, nil
}

// ID returns the seeker identifier.
func (s *Seeker) ID() int64 { return s.id }

// Name returns the display name.
func (s *Seeker) Name() string { return s.name }

// Description returns the investment thesis text.
func (s *Seeker) Description() string { return s.description }

// Categories returns the industries of interest.
func (s *Seeker) Categories() Set { return s.categories }

// Stages returns the acceptable funding stages.
func (s *Seeker) Stages() Set { return s.stages }

// Localities returns the acceptable locations.
func (s *Seeker) Localities() Set { return s.localities }

// MinAmount returns the lower check size, or nil.
func (s *Seeker) MinAmount() *float64 { return s.minAmount }

// MaxAmount returns the upper check size, or nil.
func (s *Seeker) MaxAmount() *float64 { return s.maxAmount }

func orEmpty(s Set) Set {
	if s == nil {
		return Set{}
	}
	return s
}

func cloneAmount(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
