package snapshot_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

func hop(id, parentID string, order int) *snapshot.Snapshot {
	return &snapshot.Snapshot{ID: id, ParentID: parentID, Order: order, CorrelationID: "tx-1"}
}

func TestChain(t *testing.T) {
	first := hop("a", "", 0)
	second := hop("b", "a", 1)
	third := hop("c", "b", 2)

	chain, err := snapshot.Chain([]*snapshot.Snapshot{third, first, second})
	require.NoError(t, err)

	assert.Equal(t, []*snapshot.Snapshot{first, second, third}, chain)
}

func TestChain_errors(t *testing.T) {
	testCases := []struct {
		Name      string
		Snapshots []*snapshot.Snapshot
		Expected  error
	}{
		{
			Name:     "empty",
			Expected: snapshot.ErrEmptyChain,
		},
		{
			Name:      "mixed_correlation",
			Snapshots: []*snapshot.Snapshot{hop("a", "", 0), {ID: "b", ParentID: "a", CorrelationID: "tx-2"}},
			Expected:  snapshot.ErrMixedCorrelation,
		},
		{
			Name:      "no_root",
			Snapshots: []*snapshot.Snapshot{hop("b", "a", 1)},
			Expected:  snapshot.ErrNoRoot,
		},
		{
			Name:      "two_roots",
			Snapshots: []*snapshot.Snapshot{hop("a", "", 0), hop("b", "", 0)},
			Expected:  snapshot.ErrForkedChain,
		},
		{
			Name:      "fork",
			Snapshots: []*snapshot.Snapshot{hop("a", "", 0), hop("b", "a", 1), hop("c", "a", 1)},
			Expected:  snapshot.ErrForkedChain,
		},
		{
			Name:      "orphan",
			Snapshots: []*snapshot.Snapshot{hop("a", "", 0), hop("c", "b", 2)},
			Expected:  snapshot.ErrBrokenChain,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := snapshot.Chain(tc.Snapshots)
			assert.Equal(t, tc.Expected, errors.Cause(err))
		})
	}
}
