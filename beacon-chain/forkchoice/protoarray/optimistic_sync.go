package protoarray

import (
	"context"

	"github.com/sextantlabs/sextant/config/params"
	"go.opencensus.io/trace"
)

// SetOptimisticToValid flips the execution status of the node with the given
// root and all of its optimistic ancestors to valid. The execution engine
// vouching for a payload proves every ancestor payload was reachable and
// valid as well. Finding an invalid ancestor on the way is a hard
// contradiction and surfaces as an error, it is never silently resolved.
func (f *ForkChoice) SetOptimisticToValid(ctx context.Context, root [32]byte) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.SetOptimisticToValid")
	defer span.End()

	s := f.store
	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	index, ok := s.nodesIndices[root]
	if !ok {
		return ErrNilNode
	}
	node := s.nodes[index]
	if node.status == ExecutionInvalid {
		return ErrInvalidOptimisticStatus
	}

	for {
		switch node.status {
		case ExecutionValid:
			// The remaining ancestry was validated earlier.
			return nil
		case ExecutionInvalid:
			return ErrInvalidAncestorOfValidPayload
		case ExecutionOptimistic:
			node.status = ExecutionValid
		case ExecutionIrrelevant:
			// Pre-upgrade blocks have no payload to validate.
		}
		if node.parent == NonExistentNode {
			return nil
		}
		if node.parent >= uint64(len(s.nodes)) {
			return ErrInvalidParentIndex
		}
		node = s.nodes[node.parent]
	}
}

// SetOptimisticToInvalid marks the node with the given root invalid together
// with every descendant, and walks the ancestry up to the block whose payload
// hash equals the latest valid hash reported by the execution engine,
// invalidating everything below it. When the root itself is not tracked the
// walk starts at its parent instead, covering the case where an invalid block
// was rejected before insertion. The roots of all invalidated nodes are
// returned so callers can evict the blocks elsewhere.
func (f *ForkChoice) SetOptimisticToInvalid(ctx context.Context, root, parentRoot, latestValidHash [32]byte) ([][32]byte, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.SetOptimisticToInvalid")
	defer span.End()

	s := f.store
	s.nodesLock.Lock()
	defer s.nodesLock.Unlock()

	index, ok := s.nodesIndices[root]
	if !ok {
		index, ok = s.nodesIndices[parentRoot]
		if !ok {
			return nil, ErrNilNode
		}
	}

	// Walk towards the latest valid ancestor, marking the range in between.
	invalidIndices := make(map[uint64]bool)
	for i := index; ; {
		node := s.nodes[i]
		if node.payloadHash == latestValidHash {
			break
		}
		switch node.status {
		case ExecutionValid:
			return nil, ErrValidToInvalid
		case ExecutionIrrelevant:
			return nil, ErrIrrelevantDescendant
		}
		invalidIndices[i] = true
		if node.parent == NonExistentNode {
			// The hash has to resolve inside the tracked range unless the
			// engine could not name a valid ancestor at all.
			if latestValidHash != params.BeaconConfig().ZeroHash {
				return nil, ErrUnknownLatestValidAncestor
			}
			break
		}
		if node.parent >= uint64(len(s.nodes)) {
			return nil, ErrInvalidParentIndex
		}
		i = node.parent
	}

	// Insertion is topologically ordered so a single forward pass reaches
	// every descendant of an invalidated parent.
	invalidRoots := make([][32]byte, 0, len(invalidIndices))
	for i, node := range s.nodes {
		if node.parent != NonExistentNode && invalidIndices[node.parent] {
			invalidIndices[uint64(i)] = true
		}
		if invalidIndices[uint64(i)] {
			if node.status == ExecutionValid {
				return nil, ErrValidToInvalid
			}
			if node.status != ExecutionInvalid {
				invalidRoots = append(invalidRoots, node.root)
			}
			node.status = ExecutionInvalid
			node.bestChild = NonExistentNode
			node.bestDescendant = NonExistentNode
			delete(s.canonicalNodes, node.root)
		}
	}

	// Recompute the best child and descendant pointers so the invalidated
	// subtree can no longer be reached from its ancestors. The weights of the
	// invalidated nodes are shed on the next weight application.
	tipSlot := s.tipSlot()
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if n.parent != NonExistentNode {
			if err := s.updateBestChildAndDescendant(n.parent, uint64(i), tipSlot); err != nil {
				return nil, err
			}
		}
	}

	invalidatedCount.Add(float64(len(invalidRoots)))
	log.WithField("count", len(invalidRoots)).Debug("Invalidated execution payloads")
	return invalidRoots, nil
}
