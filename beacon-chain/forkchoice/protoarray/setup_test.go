package protoarray

import (
	"context"
	"encoding/binary"

	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
	"github.com/sextantlabs/sextant/crypto/hash"
)

// indexToHash maps a small integer to a deterministic block root.
func indexToHash(i uint64) [32]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], i)
	return hash.Hash(b[:])
}

// zeroCheckpoint returns a checkpoint at the given epoch rooted at the zero
// hash, the shape most tests use for the store view and the block fields.
func zeroCheckpoint(epoch types.Epoch) *forkchoicetypes.Checkpoint {
	return &forkchoicetypes.Checkpoint{Epoch: epoch, Root: params.BeaconConfig().ZeroHash}
}

// tstBlock builds a block whose checkpoints sit at the zero hash root.
func tstBlock(slot types.Slot, root, parentRoot [32]byte, payloadHash [32]byte, justifiedEpoch, finalizedEpoch types.Epoch) *forkchoicetypes.Block {
	return &forkchoicetypes.Block{
		Slot:                slot,
		Root:                root,
		ParentRoot:          parentRoot,
		PayloadHash:         payloadHash,
		JustifiedCheckpoint: zeroCheckpoint(justifiedEpoch),
		FinalizedCheckpoint: zeroCheckpoint(finalizedEpoch),
	}
}

// setup returns a fork choice instance anchored at the zero hash with the
// given justified and finalized epochs.
func setup(justifiedEpoch, finalizedEpoch types.Epoch) *ForkChoice {
	f := New(zeroCheckpoint(justifiedEpoch), zeroCheckpoint(finalizedEpoch))
	anchor := tstBlock(0, params.BeaconConfig().ZeroHash, params.BeaconConfig().ZeroHash, params.BeaconConfig().ZeroHash, justifiedEpoch, finalizedEpoch)
	if err := f.ProcessBlock(context.Background(), anchor); err != nil {
		panic(err)
	}
	return f
}
