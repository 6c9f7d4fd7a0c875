// Package scenarios holds the fork choice conformance suites: declarative
// operation sequences with expected heads, weights and tree sizes, executable
// against a live engine and serializable as YAML test vectors.
package scenarios

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray"
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	"github.com/sextantlabs/sextant/config/params"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// Operation names as they appear in emitted vectors.
const (
	OpFindHead              = "find_head"
	OpProposerBoostFindHead = "proposer_boost_find_head"
	OpInvalidFindHead       = "invalid_find_head"
	OpProcessBlock          = "process_block"
	OpProcessAttestation    = "process_attestation"
	OpPrune                 = "prune"
	OpInvalidatePayload     = "invalidate_payload"
	OpAssertWeight          = "assert_weight"
)

// Root is a 32 byte root rendered as a hex string in YAML.
type Root [32]byte

// MarshalYAML implements yaml.Marshaler.
func (r Root) MarshalYAML() (interface{}, error) {
	return "0x" + hex.EncodeToString(r[:]), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Root) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "could not decode root")
	}
	if len(b) != 32 {
		return errors.Errorf("root has %d bytes, wanted 32", len(b))
	}
	copy(r[:], b)
	return nil
}

// Checkpoint is an epoch and root pair in vector form.
type Checkpoint struct {
	Epoch types.Epoch `yaml:"epoch"`
	Root  Root        `yaml:"root"`
}

func (c *Checkpoint) forkchoice() *forkchoicetypes.Checkpoint {
	return &forkchoicetypes.Checkpoint{Epoch: c.Epoch, Root: c.Root}
}

// Operation is one step of a scenario. Op selects the operation, the other
// fields are read according to it.
type Operation struct {
	Op                     string      `yaml:"op"`
	JustifiedCheckpoint    *Checkpoint `yaml:"justified_checkpoint,omitempty"`
	FinalizedCheckpoint    *Checkpoint `yaml:"finalized_checkpoint,omitempty"`
	JustifiedStateBalances []uint64    `yaml:"justified_state_balances,omitempty"`
	ExpectedHead           *Root       `yaml:"expected_head,omitempty"`
	ProposerBoostRoot      *Root       `yaml:"proposer_boost_root,omitempty"`
	Slot                   types.Slot  `yaml:"slot,omitempty"`
	Root                   *Root       `yaml:"root,omitempty"`
	ParentRoot             *Root       `yaml:"parent_root,omitempty"`
	ValidatorIndex         uint64      `yaml:"validator_index,omitempty"`
	BlockRoot              *Root       `yaml:"block_root,omitempty"`
	TargetEpoch            types.Epoch `yaml:"target_epoch,omitempty"`
	FinalizedRoot          *Root       `yaml:"finalized_root,omitempty"`
	PruneThreshold         uint64      `yaml:"prune_threshold,omitempty"`
	ExpectedLen            int         `yaml:"expected_len,omitempty"`
	HeadBlockRoot          *Root       `yaml:"head_block_root,omitempty"`
	LatestValidHash        *Root       `yaml:"latest_valid_hash,omitempty"`
	Weight                 uint64      `yaml:"weight,omitempty"`
}

// Definition is a complete scenario: the anchor parameters and the operation
// sequence to drive against a fresh engine.
type Definition struct {
	Name                string       `yaml:"name"`
	FinalizedBlockSlot  types.Slot   `yaml:"finalized_block_slot"`
	JustifiedCheckpoint Checkpoint   `yaml:"justified_checkpoint"`
	FinalizedCheckpoint Checkpoint   `yaml:"finalized_checkpoint"`
	Operations          []*Operation `yaml:"operations"`
}

// All returns every scenario suite in emission order.
func All() []*Definition {
	return []*Definition{
		Votes(),
		NoVotes(),
		FFG01(),
		FFG02(),
		ExecutionStatus01(),
		ExecutionStatus02(),
		ExecutionStatus03(),
	}
}

// Run drives the scenario against a fresh engine. Head queries run at slot
// zero with a proposer boost of 50 percent, matching the emitted vectors.
// After every mutating operation the whole engine is serialized, decoded and
// rebuilt, so a vector run also proves the snapshot codec transparent.
func (d *Definition) Run(ctx context.Context) error {
	restore := params.BeaconConfig().Copy()
	boosted := params.BeaconConfig().Copy()
	boosted.ProposerScoreBoost = 50
	params.OverrideBeaconConfig(boosted)
	defer params.OverrideBeaconConfig(restore)

	f := protoarray.New(d.JustifiedCheckpoint.forkchoice(), d.FinalizedCheckpoint.forkchoice())
	anchor := &forkchoicetypes.Block{
		Slot:                d.FinalizedBlockSlot,
		Root:                [32]byte(d.FinalizedCheckpoint.Root),
		ParentRoot:          [32]byte(d.FinalizedCheckpoint.Root),
		JustifiedCheckpoint: d.JustifiedCheckpoint.forkchoice(),
		FinalizedCheckpoint: d.FinalizedCheckpoint.forkchoice(),
	}
	if err := f.ProcessBlock(ctx, anchor); err != nil {
		return errors.Wrap(err, "could not insert anchor block")
	}

	for i, op := range d.Operations {
		var err error
		switch op.Op {
		case OpFindHead:
			f, err = runFindHead(ctx, f, op, [32]byte{})
		case OpProposerBoostFindHead:
			f, err = runFindHead(ctx, f, op, [32]byte(*op.ProposerBoostRoot))
		case OpInvalidFindHead:
			_, headErr := f.Head(ctx, 0, op.JustifiedCheckpoint.forkchoice(), op.FinalizedCheckpoint.forkchoice(), op.JustifiedStateBalances, [32]byte{})
			if headErr == nil {
				err = errors.New("expected the head query to fail")
				break
			}
			f, err = roundTrip(f)
		case OpProcessBlock:
			blk := &forkchoicetypes.Block{
				Slot:                op.Slot,
				Root:                [32]byte(*op.Root),
				ParentRoot:          [32]byte(*op.ParentRoot),
				PayloadHash:         [32]byte(*op.Root),
				JustifiedCheckpoint: op.JustifiedCheckpoint.forkchoice(),
				FinalizedCheckpoint: op.FinalizedCheckpoint.forkchoice(),
			}
			if err = f.ProcessBlock(ctx, blk); err != nil {
				break
			}
			f, err = roundTrip(f)
		case OpProcessAttestation:
			f.ProcessAttestation(ctx, []uint64{op.ValidatorIndex}, [32]byte(*op.BlockRoot), op.TargetEpoch)
			f, err = roundTrip(f)
		case OpPrune:
			f.SetPruneThreshold(op.PruneThreshold)
			if err = f.Prune(ctx, [32]byte(*op.FinalizedRoot)); err != nil {
				break
			}
			if f.NodeCount() != op.ExpectedLen {
				err = errors.Errorf("pruned to %d nodes, wanted %d", f.NodeCount(), op.ExpectedLen)
				break
			}
			f, err = roundTrip(f)
		case OpInvalidatePayload:
			latestValidHash := [32]byte{}
			if op.LatestValidHash != nil {
				latestValidHash = [32]byte(*op.LatestValidHash)
			}
			if _, err = f.SetOptimisticToInvalid(ctx, [32]byte(*op.HeadBlockRoot), [32]byte(*op.HeadBlockRoot), latestValidHash); err != nil {
				break
			}
			f, err = roundTrip(f)
		case OpAssertWeight:
			var w uint64
			if w, err = f.Weight([32]byte(*op.BlockRoot)); err != nil {
				break
			}
			if w != op.Weight {
				err = errors.Errorf("weight is %d, wanted %d", w, op.Weight)
			}
		default:
			err = errors.Errorf("unknown operation %q", op.Op)
		}
		if err != nil {
			return errors.Wrapf(err, "operation %d (%s)", i, op.Op)
		}
	}
	return nil
}

func runFindHead(ctx context.Context, f *protoarray.ForkChoice, op *Operation, boostRoot [32]byte) (*protoarray.ForkChoice, error) {
	head, err := f.Head(ctx, 0, op.JustifiedCheckpoint.forkchoice(), op.FinalizedCheckpoint.forkchoice(), op.JustifiedStateBalances, boostRoot)
	if err != nil {
		return nil, err
	}
	if head != [32]byte(*op.ExpectedHead) {
		return nil, errors.Errorf("head is %#x, wanted %#x", head, *op.ExpectedHead)
	}
	return roundTrip(f)
}

// roundTrip serializes the engine, decodes it back and rebuilds a fresh
// instance from the decoded snapshot. The scenario continues on the rebuilt
// engine, a codec defect surfaces as a divergence in a later step.
func roundTrip(f *protoarray.ForkChoice) (*protoarray.ForkChoice, error) {
	snap := f.ToSnapshot()
	buf, err := snap.MarshalSSZ()
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal snapshot")
	}
	decoded := new(protoarray.Snapshot)
	if err := decoded.UnmarshalSSZ(buf); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal snapshot")
	}
	if !reflect.DeepEqual(snap, decoded) {
		return nil, errors.New("snapshot changed across encoding")
	}
	rebuilt, err := protoarray.FromSnapshot(decoded)
	if err != nil {
		return nil, errors.Wrap(err, "could not rebuild from snapshot")
	}
	return rebuilt, nil
}

// getRoot maps a small integer to a root that is never the zero hash.
func getRoot(i uint64) Root {
	var r Root
	binary.BigEndian.PutUint64(r[24:], i+1)
	return r
}

func rootPtr(i uint64) *Root {
	r := getRoot(i)
	return &r
}

// getCheckpoint returns a checkpoint at epoch i rooted at getRoot(i).
func getCheckpoint(i uint64) *Checkpoint {
	return &Checkpoint{Epoch: types.Epoch(i), Root: getRoot(i)}
}

func checkpointAt(epoch types.Epoch, root uint64) *Checkpoint {
	return &Checkpoint{Epoch: epoch, Root: getRoot(root)}
}

// Suite builders below assemble operations from small integers, mirroring the
// emitted vector fields one to one.

func findHeadOp(jc, fc *Checkpoint, balances []uint64, expectedHead uint64) *Operation {
	return &Operation{
		Op:                     OpFindHead,
		JustifiedCheckpoint:    jc,
		FinalizedCheckpoint:    fc,
		JustifiedStateBalances: balances,
		ExpectedHead:           rootPtr(expectedHead),
	}
}

func boostFindHeadOp(jc, fc *Checkpoint, balances []uint64, expectedHead, boostRoot uint64) *Operation {
	op := findHeadOp(jc, fc, balances, expectedHead)
	op.Op = OpProposerBoostFindHead
	op.ProposerBoostRoot = rootPtr(boostRoot)
	return op
}

func invalidFindHeadOp(jc, fc *Checkpoint, balances []uint64) *Operation {
	return &Operation{
		Op:                     OpInvalidFindHead,
		JustifiedCheckpoint:    jc,
		FinalizedCheckpoint:    fc,
		JustifiedStateBalances: balances,
	}
}

func processBlockOp(slot types.Slot, root, parentRoot uint64, jc, fc *Checkpoint) *Operation {
	return &Operation{
		Op:                  OpProcessBlock,
		Slot:                slot,
		Root:                rootPtr(root),
		ParentRoot:          rootPtr(parentRoot),
		JustifiedCheckpoint: jc,
		FinalizedCheckpoint: fc,
	}
}

func attestationOp(validatorIndex, blockRoot uint64, targetEpoch types.Epoch) *Operation {
	return &Operation{
		Op:             OpProcessAttestation,
		ValidatorIndex: validatorIndex,
		BlockRoot:      rootPtr(blockRoot),
		TargetEpoch:    targetEpoch,
	}
}

func pruneOp(finalizedRoot, pruneThreshold uint64, expectedLen int) *Operation {
	return &Operation{
		Op:             OpPrune,
		FinalizedRoot:  rootPtr(finalizedRoot),
		PruneThreshold: pruneThreshold,
		ExpectedLen:    expectedLen,
	}
}

func invalidatePayloadOp(headBlockRoot, latestValidHash uint64) *Operation {
	return &Operation{
		Op:              OpInvalidatePayload,
		HeadBlockRoot:   rootPtr(headBlockRoot),
		LatestValidHash: rootPtr(latestValidHash),
	}
}

func assertWeightOp(blockRoot, weight uint64) *Operation {
	return &Operation{
		Op:        OpAssertWeight,
		BlockRoot: rootPtr(blockRoot),
		Weight:    weight,
	}
}
