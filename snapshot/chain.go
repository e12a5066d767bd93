package snapshot

import (
	"github.com/pkg/errors"
)

var (
	ErrEmptyChain       = errors.New("no snapshots")
	ErrMixedCorrelation = errors.New("snapshots belong to different transactions")
	ErrNoRoot           = errors.New("no root snapshot")
	ErrForkedChain      = errors.New("chain is forked")
	ErrBrokenChain      = errors.New("chain is broken")
)

// Chain orders the snapshots of one transaction from the first hop to the last one
// by following parent ids. Only stored records are needed to rebuild the chain.
//
// All snapshots must share a correlation id, have exactly one root and no forks.
func Chain(snapshots []*Snapshot) ([]*Snapshot, error) {
	if len(snapshots) == 0 {
		return nil, ErrEmptyChain
	}

	correlationID := snapshots[0].CorrelationID

	var root *Snapshot
	children := make(map[string]*Snapshot, len(snapshots))

	for _, s := range snapshots {
		if s.CorrelationID != correlationID {
			return nil, errors.Wrapf(ErrMixedCorrelation, "%s and %s", correlationID, s.CorrelationID)
		}

		if s.IsRoot() {
			if root != nil {
				return nil, errors.Wrapf(ErrForkedChain, "snapshots %s and %s are both roots", root.ID, s.ID)
			}
			root = s
			continue
		}

		if sibling, ok := children[s.ParentID]; ok {
			return nil, errors.Wrapf(ErrForkedChain, "snapshots %s and %s share parent %s", sibling.ID, s.ID, s.ParentID)
		}
		children[s.ParentID] = s
	}

	if root == nil {
		return nil, ErrNoRoot
	}

	chain := make([]*Snapshot, 0, len(snapshots))
	visited := make(map[string]struct{}, len(snapshots))

	for current := root; current != nil; current = children[current.ID] {
		if _, ok := visited[current.ID]; ok {
			return nil, errors.Wrapf(ErrBrokenChain, "cycle at snapshot %s", current.ID)
		}
		visited[current.ID] = struct{}{}

		chain = append(chain, current)
	}

	if len(chain) != len(snapshots) {
		return nil, errors.Wrapf(ErrBrokenChain, "%d of %d snapshots are not reachable from root %s", len(snapshots)-len(chain), len(snapshots), root.ID)
	}

	return chain, nil
}
