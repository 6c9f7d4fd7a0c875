package protoarray

import (
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	"github.com/sextantlabs/sextant/time/slots"
)

// leadsToViableHead returns true if the node or the best descendant of the
// node is viable for head. The caller must hold the nodes lock.
func (s *Store) leadsToViableHead(node *Node, currentSlot types.Slot) (bool, error) {
	var bestDescendantViable bool
	bestDescendantIndex := node.bestDescendant

	// If the best descendant is not part of the leaves.
	if bestDescendantIndex != NonExistentNode {
		// Protection against out of bound, the best descendant index can not
		// exceed the length of the node list.
		if bestDescendantIndex >= uint64(len(s.nodes)) {
			return false, ErrInvalidBestDescendantIndex
		}

		bestDescendantNode := s.nodes[bestDescendantIndex]
		bestDescendantViable = s.viableForHead(bestDescendantNode, currentSlot)
	}

	// The node is viable as long as the best descendant is viable.
	return bestDescendantViable || s.viableForHead(node, currentSlot), nil
}

// viableForHead returns true if the node is viable to be head. A node with an
// invalid execution payload can never be head. Otherwise the node's voting
// source has to be compatible with the store's justified checkpoint and the
// node has to descend from the finalized checkpoint.
func (s *Store) viableForHead(node *Node, currentSlot types.Slot) bool {
	if node.status == ExecutionInvalid {
		return false
	}
	if s.justifiedCheckpoint == nil || s.finalizedCheckpoint == nil {
		return false
	}

	currentEpoch := slots.ToEpoch(currentSlot)

	// The voting source is the justified checkpoint the chain would use when
	// casting votes for this node. Once the wall clock has moved past the
	// node's epoch, its unrealized justification has been realized by epoch
	// processing, so the unrealized checkpoint stands in when present.
	votingSource := node.justifiedCheckpoint
	if currentEpoch > slots.ToEpoch(node.slot) && node.unrealizedJustifiedCheckpoint != nil {
		votingSource = node.unrealizedJustifiedCheckpoint
	}
	if votingSource == nil {
		return false
	}

	// The voting source matches the store's justified checkpoint exactly, or
	// it trails the wall clock by at most two epochs. The genesis epoch is
	// exempt so an unjustified young chain still yields heads.
	justified := s.justifiedCheckpoint.Epoch == 0 ||
		votingSource.Epoch == s.justifiedCheckpoint.Epoch ||
		votingSource.Epoch+2 >= currentEpoch

	finalized := s.finalizedCheckpoint.Epoch == 0 || s.isFinalizedCheckpointOrDescendant(node)

	return justified && finalized
}

// isFinalizedCheckpointOrDescendant returns true if the node is the block of
// the store's finalized checkpoint or descends from it. A fast path compares
// the node's own checkpoints against the finalized checkpoint, any match
// proves descendance without a walk. Otherwise ancestors are walked until the
// finalized slot is reached. An ancestor lost to pruning counts as a
// descendant since only finalized ancestry survives a prune, an unknown index
// does not. The caller must hold the nodes lock.
func (s *Store) isFinalizedCheckpointOrDescendant(node *Node) bool {
	f := s.finalizedCheckpoint
	finalizedSlot, err := slots.EpochStart(f.Epoch)
	if err != nil {
		return false
	}

	for _, cp := range []*forkchoicetypes.Checkpoint{
		node.justifiedCheckpoint,
		node.finalizedCheckpoint,
		node.unrealizedJustifiedCheckpoint,
		node.unrealizedFinalizedCheckpoint,
	} {
		if cp != nil && cp.Epoch == f.Epoch && cp.Root == f.Root {
			return true
		}
	}

	n := node
	for n.slot > finalizedSlot {
		if n.parent == NonExistentNode {
			return true
		}
		if n.parent >= uint64(len(s.nodes)) {
			return false
		}
		n = s.nodes[n.parent]
	}
	return n.root == f.Root
}

// tipSlot returns the highest slot among the tracked nodes. It stands in for
// the wall clock in operations that do not receive the current slot. The
// caller must hold the nodes lock.
func (s *Store) tipSlot() types.Slot {
	var tip types.Slot
	for _, n := range s.nodes {
		if n.slot > tip {
			tip = n.slot
		}
	}
	return tip
}
