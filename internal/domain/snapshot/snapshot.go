package snapshot

import "github.com/9Skies9/InvestLink/internal/domain/interaction"

// ProviderRow is one company_info record as stored, before parsing.
type ProviderRow struct {
	ID          int64
	Name        string
	Description string
	Categories  string
	Stage       string
	Locality    string
	Amount      string
}

// SeekerRow is one user_info record as stored, before parsing.
type SeekerRow struct {
	ID          int64
	Name        string
	Description string
	Categories  string
	Stages      string
	Localities  string
	MinAmount   string
	MaxAmount   string
}

// DecisionRow is a decided pair from one of the interaction tables.
// Rows with like_or_not = -1 never reach this type.
type DecisionRow struct {
	Subject int64
	Object  int64
	Status  interaction.Status
}

// Snapshot is a point-in-time copy of everything the engine loads.
type Snapshot struct {
	Providers []ProviderRow
	Seekers   []SeekerRow
	// SeekerDecisions come from user_to_company_interact (subject is a seeker).
	SeekerDecisions []DecisionRow
	// ProviderDecisions come from company_to_user_interact (subject is a provider).
	ProviderDecisions []DecisionRow
}

// DecisionFromLikeOrNot converts the stored like_or_not value.
// ok is false for -1 ("never decided") and for out-of-range values.
func DecisionFromLikeOrNot(subject, object int64, likeOrNot int) (DecisionRow, bool) {
	switch interaction.Status(likeOrNot) {
	case interaction.StatusAccept, interaction.StatusReject:
		return DecisionRow{Subject: subject, Object: object, Status: interaction.Status(likeOrNot)}, true
	default:
		return DecisionRow{}, false
	}
}
