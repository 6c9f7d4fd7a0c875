package kv

import (
	"bytes"

	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray"
	bolt "go.etcd.io/bbolt"
)

var migrationLegacySnapshot0Key = []byte("legacy_snapshot_0")

// migrateLegacySnapshot upgrades a snapshot written in the legacy node layout
// to the current schema and rewrites it under the current key. A snapshot
// already present under the current key wins over the legacy one.
func migrateLegacySnapshot(tx *bolt.Tx) error {
	mb := tx.Bucket(migrationsBucket)
	if b := mb.Get(migrationLegacySnapshot0Key); bytes.Equal(b, migrationCompleted) {
		return nil // Migration already completed.
	}

	bkt := tx.Bucket(forkchoiceBucket)
	enc := bkt.Get(forkchoiceLegacySnapshotKey)
	if enc == nil {
		// Nothing to upgrade yet. Leave the marker unset so a snapshot
		// restored from an old backup still gets migrated on the next open.
		return nil
	}

	if bkt.Get(forkchoiceSnapshotKey) == nil {
		legacy := &protoarray.LegacySnapshot{}
		if err := decode(enc, legacy); err != nil {
			return err
		}
		snap, err := legacy.Upgrade()
		if err != nil {
			return err
		}
		out, err := encode(snap)
		if err != nil {
			return err
		}
		if err := bkt.Put(forkchoiceSnapshotKey, out); err != nil {
			return err
		}
	}
	if err := bkt.Delete(forkchoiceLegacySnapshotKey); err != nil {
		return err
	}

	return mb.Put(migrationLegacySnapshot0Key, migrationCompleted)
}
