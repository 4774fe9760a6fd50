package statusflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fintab/ledgerview/internal/record"
)

func TestEveryStatusHasANode(t *testing.T) {
	t.Parallel()
	g := Default()

	for _, s := range record.Statuses() {
		m, ok := g.Meta(s)
		require.True(t, ok, "status %s", s)
		require.NotEmpty(t, m.Label)
		for _, next := range m.Next {
			require.True(t, next.Valid(), "%s -> %s", s, next)
		}
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	g := Default()

	require.True(t, g.CanTransition(record.StatusPending, record.StatusCompleted))
	require.True(t, g.CanTransition(record.StatusDisputed, record.StatusCancelled))
	require.False(t, g.CanTransition(record.StatusPending, record.StatusDisputed))
	require.False(t, g.CanTransition(record.StatusCancelled, record.StatusPending))

	// Self-transition is always a no-op accept.
	require.True(t, g.CanTransition(record.StatusCancelled, record.StatusCancelled))
}

func TestRequestTransitionDerivesPending(t *testing.T) {
	t.Parallel()
	g := Default()

	res, err := g.RequestTransition(record.StatusUnverified, record.StatusPending)
	require.NoError(t, err)
	require.Equal(t, record.StatusPending, res.Status)
	require.True(t, res.Pending)

	res, err = g.RequestTransition(record.StatusPending, record.StatusCompleted)
	require.NoError(t, err)
	require.False(t, res.Pending)
}

func TestRejectionCarriesAllowList(t *testing.T) {
	t.Parallel()
	g := Default()

	_, err := g.RequestTransition(record.StatusCompleted, record.StatusCancelled)
	require.Error(t, err)

	var ill *IllegalTransitionError
	require.True(t, errors.As(err, &ill))
	require.Equal(t, record.StatusCompleted, ill.From)
	require.Equal(t, record.StatusCancelled, ill.To)
	require.Equal(t, g.Allowed(record.StatusCompleted), ill.Allowed)
	require.Contains(t, err.Error(), "FLAGGED")
}

func TestCancelledIsTerminal(t *testing.T) {
	t.Parallel()
	g := Default()

	require.Empty(t, g.Allowed(record.StatusCancelled))
	for _, s := range record.Statuses() {
		if s == record.StatusCancelled {
			continue
		}
		_, err := g.RequestTransition(record.StatusCancelled, s)
		require.Error(t, err, "cancelled -> %s", s)
	}
}

func TestCompleteShortcut(t *testing.T) {
	t.Parallel()
	g := Default()

	res, err := g.Complete(record.StatusPending)
	require.NoError(t, err)
	require.Equal(t, record.StatusCompleted, res.Status)

	_, err = g.Complete(record.StatusNeedsDocumentation)
	var ill *IllegalTransitionError
	require.True(t, errors.As(err, &ill))
}

func TestAllowedIsSortedAndDetached(t *testing.T) {
	t.Parallel()
	g := Default()

	allowed := g.Allowed(record.StatusPending)
	for i := 1; i < len(allowed); i++ {
		require.Less(t, allowed[i-1], allowed[i])
	}

	// Mutating the returned slice must not alter the graph.
	allowed[0] = record.StatusDisputed
	require.False(t, g.CanTransition(record.StatusPending, record.StatusDisputed))
}
