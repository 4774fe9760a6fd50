package record

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Status is a record's position in the review lifecycle.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusCompleted          Status = "COMPLETED"
	StatusAwaitingReview     Status = "AWAITING_REVIEW"
	StatusUnderReview        Status = "UNDER_REVIEW"
	StatusFlagged            Status = "FLAGGED"
	StatusDisputed           Status = "DISPUTED"
	StatusNeedsDocumentation Status = "NEEDS_DOCUMENTATION"
	StatusRequiresApproval   Status = "REQUIRES_APPROVAL"
	StatusUnverified         Status = "UNVERIFIED"
	StatusCancelled          Status = "CANCELLED"
)

// Statuses returns all declared status values.
func Statuses() []Status {
	return []Status{
		StatusPending, StatusCompleted, StatusAwaitingReview, StatusUnderReview,
		StatusFlagged, StatusDisputed, StatusNeedsDocumentation,
		StatusRequiresApproval, StatusUnverified, StatusCancelled,
	}
}

// Valid reports whether s is a declared status value.
func (s Status) Valid() bool {
	for _, k := range Statuses() {
		if s == k {
			return true
		}
	}
	return false
}

// ParseStatus maps a raw string onto a declared status. Matching is
// case-insensitive. On failure the error suggests the nearest known status,
// since these strings arrive from config files and restored view state.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s.Valid() {
		return s, nil
	}
	best, bestDist := Status(""), -1
	for _, k := range Statuses() {
		d := levenshtein.ComputeDistance(string(s), string(k))
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	return "", fmt.Errorf("unknown status %q (closest match %s)", raw, best)
}
