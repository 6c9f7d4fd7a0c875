package protoarray

import (
	fssz "github.com/ferranbt/fastssz"
	forkchoicetypes "github.com/sextantlabs/sextant/beacon-chain/forkchoice/types"
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// SSZ layout constants. A checkpoint is epoch plus root, an optional value
// carries a 4 byte selector in front of its payload.
const (
	checkpointSize         = 48 - 8 // epoch (8) + root (32)
	optionalSelectorSize   = 4
	snapshotVoteSize       = 72
	snapshotIndexSize      = 40
	snapshotNodeFixedSize  = 225
	legacyNodeFixedSize    = 145
	snapshotContainerFixed = 144
)

func optionalCheckpointSize(c *forkchoicetypes.Checkpoint) int {
	if c == nil {
		return optionalSelectorSize
	}
	return optionalSelectorSize + checkpointSize
}

func marshalCheckpoint(dst []byte, c *forkchoicetypes.Checkpoint) []byte {
	dst = fssz.MarshalUint64(dst, uint64(c.Epoch))
	dst = append(dst, c.Root[:]...)
	return dst
}

func unmarshalCheckpoint(buf []byte) *forkchoicetypes.Checkpoint {
	c := &forkchoicetypes.Checkpoint{Epoch: types.Epoch(fssz.UnmarshallUint64(buf[0:8]))}
	copy(c.Root[:], buf[8:40])
	return c
}

func marshalOptionalCheckpoint(dst []byte, c *forkchoicetypes.Checkpoint) []byte {
	if c == nil {
		return fssz.MarshalUint32(dst, 0)
	}
	dst = fssz.MarshalUint32(dst, 1)
	return marshalCheckpoint(dst, c)
}

func unmarshalOptionalCheckpoint(buf []byte) (*forkchoicetypes.Checkpoint, error) {
	if len(buf) < optionalSelectorSize {
		return nil, fssz.ErrSize
	}
	switch fssz.UnmarshallUint32(buf[0:4]) {
	case 0:
		if len(buf) != optionalSelectorSize {
			return nil, fssz.ErrSize
		}
		return nil, nil
	case 1:
		if len(buf) != optionalSelectorSize+checkpointSize {
			return nil, fssz.ErrSize
		}
		return unmarshalCheckpoint(buf[4:]), nil
	default:
		return nil, fssz.ErrSize
	}
}

// MarshalSSZ marshals the vote into its fixed 72 byte form.
func (v *SnapshotVote) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	dst = append(dst, v.CurrentRoot[:]...)
	dst = append(dst, v.NextRoot[:]...)
	dst = fssz.MarshalUint64(dst, uint64(v.NextEpoch))
	return dst, nil
}

// UnmarshalSSZ unmarshals the vote from its fixed 72 byte form.
func (v *SnapshotVote) UnmarshalSSZ(buf []byte) error {
	if len(buf) != snapshotVoteSize {
		return fssz.ErrSize
	}
	copy(v.CurrentRoot[:], buf[0:32])
	copy(v.NextRoot[:], buf[32:64])
	v.NextEpoch = types.Epoch(fssz.UnmarshallUint64(buf[64:72]))
	return nil
}

// SizeSSZ returns the encoded size of the node.
func (n *SnapshotNode) SizeSSZ() int {
	return snapshotNodeFixedSize +
		optionalCheckpointSize(n.UnrealizedJustifiedCheckpoint) +
		optionalCheckpointSize(n.UnrealizedFinalizedCheckpoint)
}

// MarshalSSZTo appends the encoded node to the given buffer. The justified
// and finalized checkpoints are required in this schema.
func (n *SnapshotNode) MarshalSSZTo(buf []byte) ([]byte, error) {
	if n.JustifiedCheckpoint == nil {
		return nil, ErrMissingJustifiedCheckpoint
	}
	if n.FinalizedCheckpoint == nil {
		return nil, ErrMissingFinalizedCheckpoint
	}
	dst := buf
	dst = fssz.MarshalUint64(dst, uint64(n.Slot))
	dst = append(dst, n.Root[:]...)
	dst = append(dst, n.StateRoot[:]...)
	dst = fssz.MarshalUint64(dst, n.Parent)
	dst = marshalCheckpoint(dst, n.JustifiedCheckpoint)
	dst = marshalCheckpoint(dst, n.FinalizedCheckpoint)

	offset := snapshotNodeFixedSize
	dst = fssz.WriteOffset(dst, offset)
	offset += optionalCheckpointSize(n.UnrealizedJustifiedCheckpoint)
	dst = fssz.WriteOffset(dst, offset)

	dst = fssz.MarshalUint64(dst, n.Weight)
	dst = fssz.MarshalUint64(dst, n.BestChild)
	dst = fssz.MarshalUint64(dst, n.BestDescendant)
	dst = append(dst, byte(n.Status))
	dst = append(dst, n.PayloadHash[:]...)

	dst = marshalOptionalCheckpoint(dst, n.UnrealizedJustifiedCheckpoint)
	dst = marshalOptionalCheckpoint(dst, n.UnrealizedFinalizedCheckpoint)
	return dst, nil
}

// UnmarshalSSZ unmarshals the node from its encoded form.
func (n *SnapshotNode) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < snapshotNodeFixedSize {
		return fssz.ErrSize
	}

	n.Slot = types.Slot(fssz.UnmarshallUint64(buf[0:8]))
	copy(n.Root[:], buf[8:40])
	copy(n.StateRoot[:], buf[40:72])
	n.Parent = fssz.UnmarshallUint64(buf[72:80])
	n.JustifiedCheckpoint = unmarshalCheckpoint(buf[80:120])
	n.FinalizedCheckpoint = unmarshalCheckpoint(buf[120:160])

	o6 := fssz.ReadOffset(buf[160:164])
	o7 := fssz.ReadOffset(buf[164:168])
	if o6 != snapshotNodeFixedSize {
		return fssz.ErrOffset
	}
	if o7 < o6 || o7 > size {
		return fssz.ErrOffset
	}

	n.Weight = fssz.UnmarshallUint64(buf[168:176])
	n.BestChild = fssz.UnmarshallUint64(buf[176:184])
	n.BestDescendant = fssz.UnmarshallUint64(buf[184:192])
	if buf[192] > byte(ExecutionIrrelevant) {
		return fssz.ErrSize
	}
	n.Status = ExecutionStatus(buf[192])
	copy(n.PayloadHash[:], buf[193:225])

	var err error
	if n.UnrealizedJustifiedCheckpoint, err = unmarshalOptionalCheckpoint(buf[o6:o7]); err != nil {
		return err
	}
	if n.UnrealizedFinalizedCheckpoint, err = unmarshalOptionalCheckpoint(buf[o7:]); err != nil {
		return err
	}
	return nil
}

// SizeSSZ returns the encoded size of the legacy node.
func (n *LegacySnapshotNode) SizeSSZ() int {
	return legacyNodeFixedSize +
		optionalCheckpointSize(n.JustifiedCheckpoint) +
		optionalCheckpointSize(n.FinalizedCheckpoint)
}

// MarshalSSZTo appends the encoded legacy node to the given buffer. Both
// checkpoints are optional in this schema.
func (n *LegacySnapshotNode) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	dst = fssz.MarshalUint64(dst, uint64(n.Slot))
	dst = append(dst, n.Root[:]...)
	dst = append(dst, n.StateRoot[:]...)
	dst = fssz.MarshalUint64(dst, n.Parent)

	offset := legacyNodeFixedSize
	dst = fssz.WriteOffset(dst, offset)
	offset += optionalCheckpointSize(n.JustifiedCheckpoint)
	dst = fssz.WriteOffset(dst, offset)

	dst = fssz.MarshalUint64(dst, n.Weight)
	dst = fssz.MarshalUint64(dst, n.BestChild)
	dst = fssz.MarshalUint64(dst, n.BestDescendant)
	dst = append(dst, byte(n.Status))
	dst = append(dst, n.PayloadHash[:]...)

	dst = marshalOptionalCheckpoint(dst, n.JustifiedCheckpoint)
	dst = marshalOptionalCheckpoint(dst, n.FinalizedCheckpoint)
	return dst, nil
}

// UnmarshalSSZ unmarshals the legacy node from its encoded form.
func (n *LegacySnapshotNode) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < legacyNodeFixedSize {
		return fssz.ErrSize
	}

	n.Slot = types.Slot(fssz.UnmarshallUint64(buf[0:8]))
	copy(n.Root[:], buf[8:40])
	copy(n.StateRoot[:], buf[40:72])
	n.Parent = fssz.UnmarshallUint64(buf[72:80])

	o4 := fssz.ReadOffset(buf[80:84])
	o5 := fssz.ReadOffset(buf[84:88])
	if o4 != legacyNodeFixedSize {
		return fssz.ErrOffset
	}
	if o5 < o4 || o5 > size {
		return fssz.ErrOffset
	}

	n.Weight = fssz.UnmarshallUint64(buf[88:96])
	n.BestChild = fssz.UnmarshallUint64(buf[96:104])
	n.BestDescendant = fssz.UnmarshallUint64(buf[104:112])
	if buf[112] > byte(ExecutionIrrelevant) {
		return fssz.ErrSize
	}
	n.Status = ExecutionStatus(buf[112])
	copy(n.PayloadHash[:], buf[113:145])

	var err error
	if n.JustifiedCheckpoint, err = unmarshalOptionalCheckpoint(buf[o4:o5]); err != nil {
		return err
	}
	if n.FinalizedCheckpoint, err = unmarshalOptionalCheckpoint(buf[o5:]); err != nil {
		return err
	}
	return nil
}

// SizeSSZ returns the encoded size of the snapshot.
func (s *Snapshot) SizeSSZ() int {
	size := snapshotContainerFixed
	size += len(s.Votes) * snapshotVoteSize
	size += len(s.Balances) * 8
	size += len(s.Nodes) * 4
	for _, n := range s.Nodes {
		size += n.SizeSSZ()
	}
	size += len(s.Indices) * snapshotIndexSize
	return size
}

// MarshalSSZ marshals the snapshot into its wire form.
func (s *Snapshot) MarshalSSZ() ([]byte, error) {
	return s.MarshalSSZTo(make([]byte, 0, s.SizeSSZ()))
}

// MarshalSSZTo appends the encoded snapshot to the given buffer.
func (s *Snapshot) MarshalSSZTo(buf []byte) ([]byte, error) {
	if s.JustifiedCheckpoint == nil {
		return nil, ErrMissingJustifiedCheckpoint
	}
	if s.FinalizedCheckpoint == nil {
		return nil, ErrMissingFinalizedCheckpoint
	}
	dst := buf

	nodesSize := len(s.Nodes) * 4
	for _, n := range s.Nodes {
		nodesSize += n.SizeSSZ()
	}

	offset := snapshotContainerFixed
	dst = fssz.WriteOffset(dst, offset) // Votes
	offset += len(s.Votes) * snapshotVoteSize
	dst = fssz.WriteOffset(dst, offset) // Balances
	offset += len(s.Balances) * 8
	dst = fssz.MarshalUint64(dst, s.PruneThreshold)
	dst = marshalCheckpoint(dst, s.JustifiedCheckpoint)
	dst = marshalCheckpoint(dst, s.FinalizedCheckpoint)
	dst = fssz.WriteOffset(dst, offset) // Nodes
	offset += nodesSize
	dst = fssz.WriteOffset(dst, offset) // Indices
	dst = append(dst, s.PreviousProposerBoostRoot[:]...)
	dst = fssz.MarshalUint64(dst, s.PreviousProposerBoostScore)

	var err error
	for _, v := range s.Votes {
		if dst, err = v.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	for _, b := range s.Balances {
		dst = fssz.MarshalUint64(dst, b)
	}
	nodeOffset := len(s.Nodes) * 4
	for _, n := range s.Nodes {
		dst = fssz.WriteOffset(dst, nodeOffset)
		nodeOffset += n.SizeSSZ()
	}
	for _, n := range s.Nodes {
		if dst, err = n.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	for _, index := range s.Indices {
		dst = append(dst, index.Root[:]...)
		dst = fssz.MarshalUint64(dst, index.Index)
	}
	return dst, nil
}

// UnmarshalSSZ unmarshals the snapshot from its wire form.
func (s *Snapshot) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < snapshotContainerFixed {
		return fssz.ErrSize
	}

	o0 := fssz.ReadOffset(buf[0:4])
	o1 := fssz.ReadOffset(buf[4:8])
	s.PruneThreshold = fssz.UnmarshallUint64(buf[8:16])
	s.JustifiedCheckpoint = unmarshalCheckpoint(buf[16:56])
	s.FinalizedCheckpoint = unmarshalCheckpoint(buf[56:96])
	o5 := fssz.ReadOffset(buf[96:100])
	o6 := fssz.ReadOffset(buf[100:104])
	copy(s.PreviousProposerBoostRoot[:], buf[104:136])
	s.PreviousProposerBoostScore = fssz.UnmarshallUint64(buf[136:144])

	if o0 != snapshotContainerFixed {
		return fssz.ErrOffset
	}
	if o1 < o0 || o5 < o1 || o6 < o5 || o6 > size {
		return fssz.ErrOffset
	}

	voteBuf := buf[o0:o1]
	if len(voteBuf)%snapshotVoteSize != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Votes = make([]*SnapshotVote, len(voteBuf)/snapshotVoteSize)
	for i := range s.Votes {
		s.Votes[i] = new(SnapshotVote)
		if err := s.Votes[i].UnmarshalSSZ(voteBuf[i*snapshotVoteSize : (i+1)*snapshotVoteSize]); err != nil {
			return err
		}
	}

	balanceBuf := buf[o1:o5]
	if len(balanceBuf)%8 != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Balances = make([]uint64, len(balanceBuf)/8)
	for i := range s.Balances {
		s.Balances[i] = fssz.UnmarshallUint64(balanceBuf[i*8 : (i+1)*8])
	}

	nodes, err := unmarshalNodeList(buf[o5:o6], func(b []byte) (*SnapshotNode, error) {
		n := new(SnapshotNode)
		return n, n.UnmarshalSSZ(b)
	})
	if err != nil {
		return err
	}
	s.Nodes = nodes

	indexBuf := buf[o6:]
	if len(indexBuf)%snapshotIndexSize != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Indices = make([]*SnapshotIndex, len(indexBuf)/snapshotIndexSize)
	for i := range s.Indices {
		entry := new(SnapshotIndex)
		copy(entry.Root[:], indexBuf[i*snapshotIndexSize:i*snapshotIndexSize+32])
		entry.Index = fssz.UnmarshallUint64(indexBuf[i*snapshotIndexSize+32 : (i+1)*snapshotIndexSize])
		s.Indices[i] = entry
	}
	return nil
}

// SizeSSZ returns the encoded size of the legacy snapshot.
func (s *LegacySnapshot) SizeSSZ() int {
	size := snapshotContainerFixed
	size += len(s.Votes) * snapshotVoteSize
	size += len(s.Balances) * 8
	size += len(s.Nodes) * 4
	for _, n := range s.Nodes {
		size += n.SizeSSZ()
	}
	size += len(s.Indices) * snapshotIndexSize
	return size
}

// MarshalSSZ marshals the legacy snapshot into its wire form.
func (s *LegacySnapshot) MarshalSSZ() ([]byte, error) {
	return s.MarshalSSZTo(make([]byte, 0, s.SizeSSZ()))
}

// MarshalSSZTo appends the encoded legacy snapshot to the given buffer.
func (s *LegacySnapshot) MarshalSSZTo(buf []byte) ([]byte, error) {
	if s.JustifiedCheckpoint == nil {
		return nil, ErrMissingJustifiedCheckpoint
	}
	if s.FinalizedCheckpoint == nil {
		return nil, ErrMissingFinalizedCheckpoint
	}
	dst := buf

	nodesSize := len(s.Nodes) * 4
	for _, n := range s.Nodes {
		nodesSize += n.SizeSSZ()
	}

	offset := snapshotContainerFixed
	dst = fssz.WriteOffset(dst, offset) // Votes
	offset += len(s.Votes) * snapshotVoteSize
	dst = fssz.WriteOffset(dst, offset) // Balances
	offset += len(s.Balances) * 8
	dst = fssz.MarshalUint64(dst, s.PruneThreshold)
	dst = marshalCheckpoint(dst, s.JustifiedCheckpoint)
	dst = marshalCheckpoint(dst, s.FinalizedCheckpoint)
	dst = fssz.WriteOffset(dst, offset) // Nodes
	offset += nodesSize
	dst = fssz.WriteOffset(dst, offset) // Indices
	dst = append(dst, s.PreviousProposerBoostRoot[:]...)
	dst = fssz.MarshalUint64(dst, s.PreviousProposerBoostScore)

	var err error
	for _, v := range s.Votes {
		if dst, err = v.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	for _, b := range s.Balances {
		dst = fssz.MarshalUint64(dst, b)
	}
	nodeOffset := len(s.Nodes) * 4
	for _, n := range s.Nodes {
		dst = fssz.WriteOffset(dst, nodeOffset)
		nodeOffset += n.SizeSSZ()
	}
	for _, n := range s.Nodes {
		if dst, err = n.MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	for _, index := range s.Indices {
		dst = append(dst, index.Root[:]...)
		dst = fssz.MarshalUint64(dst, index.Index)
	}
	return dst, nil
}

// UnmarshalSSZ unmarshals the legacy snapshot from its wire form.
func (s *LegacySnapshot) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < snapshotContainerFixed {
		return fssz.ErrSize
	}

	o0 := fssz.ReadOffset(buf[0:4])
	o1 := fssz.ReadOffset(buf[4:8])
	s.PruneThreshold = fssz.UnmarshallUint64(buf[8:16])
	s.JustifiedCheckpoint = unmarshalCheckpoint(buf[16:56])
	s.FinalizedCheckpoint = unmarshalCheckpoint(buf[56:96])
	o5 := fssz.ReadOffset(buf[96:100])
	o6 := fssz.ReadOffset(buf[100:104])
	copy(s.PreviousProposerBoostRoot[:], buf[104:136])
	s.PreviousProposerBoostScore = fssz.UnmarshallUint64(buf[136:144])

	if o0 != snapshotContainerFixed {
		return fssz.ErrOffset
	}
	if o1 < o0 || o5 < o1 || o6 < o5 || o6 > size {
		return fssz.ErrOffset
	}

	voteBuf := buf[o0:o1]
	if len(voteBuf)%snapshotVoteSize != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Votes = make([]*SnapshotVote, len(voteBuf)/snapshotVoteSize)
	for i := range s.Votes {
		s.Votes[i] = new(SnapshotVote)
		if err := s.Votes[i].UnmarshalSSZ(voteBuf[i*snapshotVoteSize : (i+1)*snapshotVoteSize]); err != nil {
			return err
		}
	}

	balanceBuf := buf[o1:o5]
	if len(balanceBuf)%8 != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Balances = make([]uint64, len(balanceBuf)/8)
	for i := range s.Balances {
		s.Balances[i] = fssz.UnmarshallUint64(balanceBuf[i*8 : (i+1)*8])
	}

	nodes, err := unmarshalNodeList(buf[o5:o6], func(b []byte) (*LegacySnapshotNode, error) {
		n := new(LegacySnapshotNode)
		return n, n.UnmarshalSSZ(b)
	})
	if err != nil {
		return err
	}
	s.Nodes = nodes

	indexBuf := buf[o6:]
	if len(indexBuf)%snapshotIndexSize != 0 {
		return fssz.ErrIncorrectListSize
	}
	s.Indices = make([]*SnapshotIndex, len(indexBuf)/snapshotIndexSize)
	for i := range s.Indices {
		entry := new(SnapshotIndex)
		copy(entry.Root[:], indexBuf[i*snapshotIndexSize:i*snapshotIndexSize+32])
		entry.Index = fssz.UnmarshallUint64(indexBuf[i*snapshotIndexSize+32 : (i+1)*snapshotIndexSize])
		s.Indices[i] = entry
	}
	return nil
}

// unmarshalNodeList decodes an SSZ list of variable size elements: an offset
// table of 4 byte entries followed by the element bodies.
func unmarshalNodeList[T any](buf []byte, decode func([]byte) (T, error)) ([]T, error) {
	if len(buf) == 0 {
		return make([]T, 0), nil
	}
	if len(buf) < 4 {
		return nil, fssz.ErrSize
	}
	first := fssz.ReadOffset(buf[0:4])
	// A non-empty list region carries at least one offset, so the first
	// offset can never be zero.
	if first == 0 || first%4 != 0 || first > uint64(len(buf)) {
		return nil, fssz.ErrOffset
	}
	count := int(first / 4)
	offsets := make([]uint64, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = fssz.ReadOffset(buf[i*4 : i*4+4])
		if i > 0 && offsets[i] < offsets[i-1] {
			return nil, fssz.ErrOffset
		}
	}
	offsets[count] = uint64(len(buf))
	if offsets[count] < offsets[count-1] {
		return nil, fssz.ErrOffset
	}

	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		elem, err := decode(buf[offsets[i]:offsets[i+1]])
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}
