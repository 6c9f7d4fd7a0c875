package protoarray

import (
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// Slot of the fork choice node.
func (n *Node) Slot() types.Slot {
	return n.slot
}

// Root of the fork choice node.
func (n *Node) Root() [32]byte {
	return n.root
}

// StateRoot of the fork choice node.
func (n *Node) StateRoot() [32]byte {
	return n.stateRoot
}

// Parent of the fork choice node.
func (n *Node) Parent() uint64 {
	return n.parent
}

// JustifiedCheckpoint of the fork choice node.
func (n *Node) JustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	return n.justifiedCheckpoint
}

// FinalizedCheckpoint of the fork choice node.
func (n *Node) FinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	return n.finalizedCheckpoint
}

// UnrealizedJustifiedCheckpoint of the fork choice node.
func (n *Node) UnrealizedJustifiedCheckpoint() *forkchoicetypes.Checkpoint {
	return n.unrealizedJustifiedCheckpoint
}

// UnrealizedFinalizedCheckpoint of the fork choice node.
func (n *Node) UnrealizedFinalizedCheckpoint() *forkchoicetypes.Checkpoint {
	return n.unrealizedFinalizedCheckpoint
}

// Weight of the fork choice node.
func (n *Node) Weight() uint64 {
	return n.weight
}

// BestChild of the fork choice node.
func (n *Node) BestChild() uint64 {
	return n.bestChild
}

// BestDescendant of the fork choice node.
func (n *Node) BestDescendant() uint64 {
	return n.bestDescendant
}

// ExecutionStatus of the fork choice node's payload.
func (n *Node) ExecutionStatus() ExecutionStatus {
	return n.status
}

// PayloadHash of the fork choice node.
func (n *Node) PayloadHash() [32]byte {
	return n.payloadHash
}

func copyCheckpoint(cp *forkchoicetypes.Checkpoint) *forkchoicetypes.Checkpoint {
	if cp == nil {
		return nil
	}
	c := *cp
	return &c
}

func copyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		slot:                          n.slot,
		root:                          n.root,
		stateRoot:                     n.stateRoot,
		parent:                        n.parent,
		justifiedCheckpoint:           copyCheckpoint(n.justifiedCheckpoint),
		finalizedCheckpoint:           copyCheckpoint(n.finalizedCheckpoint),
		unrealizedJustifiedCheckpoint: copyCheckpoint(n.unrealizedJustifiedCheckpoint),
		unrealizedFinalizedCheckpoint: copyCheckpoint(n.unrealizedFinalizedCheckpoint),
		weight:                        n.weight,
		bestChild:                     n.bestChild,
		bestDescendant:                n.bestDescendant,
		status:                        n.status,
		payloadHash:                   n.payloadHash,
	}
}
