package interaction

import (
	"fmt"

	"github.com/9Skies9/InvestLink/internal/domain"
)

// Side names whose decision a ledger entry records.
type Side string

const (
	// SideSeeker is an investor deciding on a company.
	SideSeeker Side = "seeker"
	// SideProvider is a company deciding on an investor.
	SideProvider Side = "provider"
)

// ParseSide validates a side label.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideSeeker, SideProvider:
		return Side(s), nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", domain.ErrInvalidInteraction, s)
	}
}

// Status is the last decision on a pair. The integer values match the like_or_not column.
type Status int

const (
	// StatusRevert clears a previous decision. Stored rows use -1 for "never decided".
	StatusRevert Status = -1
	// StatusReject is a pass.
	StatusReject Status = 0
	// StatusAccept is a like.
	StatusAccept Status = 1
)

// String returns the wire label.
func (s Status) String() string {
	switch s {
	case StatusRevert:
		return "revert"
	case StatusReject:
		return "reject"
	case StatusAccept:
		return "accept"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Decided reports whether the status puts the pair in the ledger.
func (s Status) Decided() bool {
	return s == StatusAccept || s == StatusReject
}

// ParseStatus accepts the wire labels "accept", "reject", "revert".
func ParseStatus(s string) (Status, error) {
	switch s {
	case "accept":
		return StatusAccept, nil
	case "reject":
		return StatusReject, nil
	case "revert":
		return StatusRevert, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInteraction, s)
	}
}

// StatusFromLiked maps a swipe to a decision.
func StatusFromLiked(liked bool) Status {
	if liked {
		return StatusAccept
	}
	return StatusReject
}

// Event is one decision by subject on object.
type Event struct {
	Side    Side
	Subject int64
	Object  int64
	Status  Status
}

// Validate checks ids and enum ranges.
func (e Event) Validate() error {
	if _, err := ParseSide(string(e.Side)); err != nil {
		return err
	}
	if e.Subject <= 0 || e.Object <= 0 {
		return fmt.Errorf("%w: ids must be positive", domain.ErrInvalidInteraction)
	}
	if e.Status < StatusRevert || e.Status > StatusAccept {
		return fmt.Errorf("%w: status %d out of range", domain.ErrInvalidInteraction, int(e.Status))
	}
	return nil
}
