package kv

import (
	"context"

	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// SaveForkChoiceSnapshot persists the snapshot, replacing any previous one.
func (s *Store) SaveForkChoiceSnapshot(ctx context.Context, snap *protoarray.Snapshot) error {
	_, span := trace.StartSpan(ctx, "BeaconDB.SaveForkChoiceSnapshot")
	defer span.End()

	enc, err := encode(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(forkchoiceBucket).Put(forkchoiceSnapshotKey, enc)
	})
}

// ForkChoiceSnapshot retrieves the stored snapshot, nil if none was saved.
func (s *Store) ForkChoiceSnapshot(ctx context.Context) (*protoarray.Snapshot, error) {
	_, span := trace.StartSpan(ctx, "BeaconDB.ForkChoiceSnapshot")
	defer span.End()

	var snap *protoarray.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(forkchoiceBucket).Get(forkchoiceSnapshotKey)
		if enc == nil {
			return nil
		}
		snap = &protoarray.Snapshot{}
		return decode(enc, snap)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
