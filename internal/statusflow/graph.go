// Package statusflow constrains which status values a record may move
// between. The graph is static configuration; per-record state never lives
// here.
package statusflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fintab/ledgerview/internal/record"
)

// Meta describes one status node: display metadata plus the allow-list of
// reachable successors.
type Meta struct {
	Label            string
	Description      string
	RequiresApproval bool
	Next             []record.Status
}

// Graph is a transition table over status values.
type Graph struct {
	nodes map[record.Status]Meta
}

// Result is an accepted transition: the target status plus the derived legacy
// pending flag, so both fields always move together.
type Result struct {
	Status  record.Status
	Pending bool
}

// IllegalTransitionError reports a disallowed transition together with the
// full allow-list for user-facing messaging.
type IllegalTransitionError struct {
	From    record.Status
	To      record.Status
	Allowed []record.Status
}

func (e *IllegalTransitionError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot move %s -> %s; allowed: %s", e.From, e.To, strings.Join(names, ", "))
}

// Default returns the standard transition graph.
func Default() *Graph {
	return &Graph{nodes: map[record.Status]Meta{
		record.StatusPending: {
			Label:       "Pending",
			Description: "Awaiting settlement or confirmation",
			Next: []record.Status{
				record.StatusCompleted, record.StatusAwaitingReview,
				record.StatusFlagged, record.StatusCancelled, record.StatusUnverified,
			},
		},
		record.StatusCompleted: {
			Label:       "Completed",
			Description: "Settled and confirmed",
			Next: []record.Status{
				record.StatusFlagged, record.StatusDisputed, record.StatusAwaitingReview,
			},
		},
		record.StatusAwaitingReview: {
			Label:       "Awaiting review",
			Description: "Queued for a reviewer",
			Next: []record.Status{
				record.StatusUnderReview, record.StatusCompleted, record.StatusCancelled,
			},
		},
		record.StatusUnderReview: {
			Label:       "Under review",
			Description: "A reviewer is working on it",
			Next: []record.Status{
				record.StatusCompleted, record.StatusFlagged,
				record.StatusNeedsDocumentation, record.StatusRequiresApproval,
			},
		},
		record.StatusFlagged: {
			Label:       "Flagged",
			Description: "Marked for attention",
			Next: []record.Status{
				record.StatusUnderReview, record.StatusDisputed, record.StatusCompleted,
			},
		},
		record.StatusDisputed: {
			Label:            "Disputed",
			Description:      "Contested with the counterparty",
			RequiresApproval: true,
			Next: []record.Status{
				record.StatusUnderReview, record.StatusCompleted, record.StatusCancelled,
			},
		},
		record.StatusNeedsDocumentation: {
			Label:       "Needs documentation",
			Description: "Blocked on supporting documents",
			Next: []record.Status{
				record.StatusUnderReview, record.StatusRequiresApproval,
			},
		},
		record.StatusRequiresApproval: {
			Label:            "Requires approval",
			Description:      "Blocked on an approver",
			RequiresApproval: true,
			Next: []record.Status{
				record.StatusCompleted, record.StatusUnderReview, record.StatusCancelled,
			},
		},
		record.StatusUnverified: {
			Label:       "Unverified",
			Description: "Imported without verification",
			Next: []record.Status{
				record.StatusPending, record.StatusAwaitingReview, record.StatusCancelled,
			},
		},
		record.StatusCancelled: {
			Label:       "Cancelled",
			Description: "Voided; no further action",
			Next:        nil,
		},
	}}
}

// Meta returns the metadata for a status.
func (g *Graph) Meta(s record.Status) (Meta, bool) {
	m, ok := g.nodes[s]
	return m, ok
}

// Allowed returns the statuses reachable from current, sorted for stable
// messaging. Self-transition is implicit and not listed.
func (g *Graph) Allowed(current record.Status) []record.Status {
	out := append([]record.Status(nil), g.nodes[current].Next...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanTransition reports whether current may move to target. A no-op
// transition to the same status is always allowed.
func (g *Graph) CanTransition(current, target record.Status) bool {
	if current == target {
		return true
	}
	for _, s := range g.nodes[current].Next {
		if s == target {
			return true
		}
	}
	return false
}

// RequestTransition validates and resolves a transition. On rejection nothing
// is mutated anywhere; the returned error carries the allow-list.
func (g *Graph) RequestTransition(current, target record.Status) (Result, error) {
	if !g.CanTransition(current, target) {
		return Result{}, &IllegalTransitionError{
			From:    current,
			To:      target,
			Allowed: g.Allowed(current),
		}
	}
	return Result{Status: target, Pending: target == record.StatusPending}, nil
}

// Complete is the mark-complete shortcut used outside edit mode. It goes
// through the same allow-list as any other transition.
func (g *Graph) Complete(current record.Status) (Result, error) {
	return g.RequestTransition(current, record.StatusCompleted)
}
