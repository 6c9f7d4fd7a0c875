package protoarray

import (
	"sync"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	elasticlist "github.com/sextantlabs/sextant/container/elastic-list"
)

// NonExistentNode defines an unknown node which is the default of any node index not yet set.
const NonExistentNode = ^uint64(0)

// defaultPruneThreshold is the minimum number of nodes below the finalized
// node before a prune call actually compacts the store.
const defaultPruneThreshold = 256

// ForkChoice defines the overall fork choice store which includes all block nodes, validator's latest votes and balances.
type ForkChoice struct {
	store               *Store
	votes               *elasticlist.List[Vote] // tracks individual validator's last vote.
	votesLock           sync.RWMutex
	balances            *JustifiedBalances // balances of the last justified state fed to Head.
	equivocatingIndices map[types.ValidatorIndex]bool
}

// Store defines the fork choice store which includes block nodes and the last view of checkpoints.
type Store struct {
	justifiedCheckpoint        *forkchoicetypes.Checkpoint
	finalizedCheckpoint        *forkchoicetypes.Checkpoint
	pruneThreshold             uint64                                  // do not prune tree unless threshold is reached.
	proposerBoostRoot          [fieldparams.RootLength]byte            // the root of the timely block for the ongoing slot, if any.
	previousProposerBoostRoot  [fieldparams.RootLength]byte            // last boosted root, so the boost can be reversed exactly.
	previousProposerBoostScore uint64                                  // weight applied to the last boosted root.
	nodes                      []*Node                                 // list of block nodes, each node is a representation of one block.
	nodesIndices               map[[fieldparams.RootLength]byte]uint64 // the root of block node and the nodes index in the list.
	canonicalNodes             map[[fieldparams.RootLength]byte]bool   // the canonical block nodes as of the last head computation.
	nodesLock                  sync.RWMutex
	proposerBoostLock          sync.RWMutex
}

// Node defines the individual block which includes its block parent, ancestor and how much weight accounted for it.
// This is used as an array based stateful DAG for efficient fork choice look up.
type Node struct {
	slot                          types.Slot                          // slot of the block converted to the node.
	root                          [fieldparams.RootLength]byte        // root of the block converted to the node.
	stateRoot                     [fieldparams.RootLength]byte        // state root of the block converted to the node.
	parent                        uint64                              // parent index of this node.
	justifiedCheckpoint           *forkchoicetypes.Checkpoint         // justified checkpoint of this node.
	finalizedCheckpoint           *forkchoicetypes.Checkpoint         // finalized checkpoint of this node.
	unrealizedJustifiedCheckpoint *forkchoicetypes.Checkpoint         // nil until the block's epoch can be processed.
	unrealizedFinalizedCheckpoint *forkchoicetypes.Checkpoint         // nil until the block's epoch can be processed.
	weight                        uint64                              // weight of this node.
	bestChild                     uint64                              // best child index of this node.
	bestDescendant                uint64                              // head index of this node.
	status                        ExecutionStatus                     // the execution engine's view of this node's payload.
	payloadHash                   [fieldparams.PayloadHashLength]byte // the hash of the execution payload, zero for pre-upgrade blocks.
}

// ExecutionStatus tracks the execution engine's verdict on a node's payload.
// It is a closed set, switches over it are exhaustive.
type ExecutionStatus uint8

const (
	// ExecutionOptimistic payloads were imported before the execution engine verified them.
	ExecutionOptimistic ExecutionStatus = iota
	// ExecutionValid payloads were fully verified by the execution engine.
	ExecutionValid
	// ExecutionInvalid payloads were rejected by the execution engine. Invalid
	// nodes can never become head, nor can their descendants.
	ExecutionInvalid
	// ExecutionIrrelevant marks blocks from before the execution upgrade, they
	// carry no payload to verify.
	ExecutionIrrelevant
)

// String returns the readable execution status for logs.
func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionOptimistic:
		return "optimistic"
	case ExecutionValid:
		return "valid"
	case ExecutionInvalid:
		return "invalid"
	case ExecutionIrrelevant:
		return "irrelevant"
	default:
		return "unknown"
	}
}

// Vote defines an individual validator's vote.
type Vote struct {
	currentRoot [fieldparams.RootLength]byte // current voting root.
	nextRoot    [fieldparams.RootLength]byte // next voting root.
	nextEpoch   types.Epoch                  // epoch of next voting period.
}
