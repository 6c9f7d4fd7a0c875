package types

import (
	fieldparams "github.com/sextantlabs/sextant/config/fieldparams"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// Checkpoint is an epoch and a block root from the epoch's first slot. It is
// used internally in forkchoice as an array version of the beacon state's
// checkpoint, so it can be used as a map key.
type Checkpoint struct {
	Epoch types.Epoch
	Root  [fieldparams.RootLength]byte
}

// Block carries the subset of block fields that forkchoice tracks for each
// node in the DAG. Callers construct it from a verified block and its
// post-state; forkchoice never validates the fields beyond parent linkage.
//
// A zero PayloadHash marks a block from before the execution upgrade, any
// other value marks a block whose payload is pending verification by the
// execution engine.
type Block struct {
	Slot                          types.Slot
	Root                          [fieldparams.RootLength]byte
	ParentRoot                    [fieldparams.RootLength]byte
	StateRoot                     [fieldparams.RootLength]byte
	PayloadHash                   [fieldparams.PayloadHashLength]byte
	JustifiedCheckpoint           *Checkpoint
	FinalizedCheckpoint           *Checkpoint
	UnrealizedJustifiedCheckpoint *Checkpoint
	UnrealizedFinalizedCheckpoint *Checkpoint
}
