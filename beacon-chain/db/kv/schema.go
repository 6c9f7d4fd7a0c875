package kv

// Bucket and key names for the fork choice schema. Values are snappy
// compressed SSZ.
var (
	forkchoiceBucket = []byte("forkchoice")
	migrationsBucket = []byte("migrations")

	// forkchoiceSnapshotKey holds the latest snapshot in the current schema.
	forkchoiceSnapshotKey = []byte("forkchoice-snapshot")
	// forkchoiceLegacySnapshotKey held snapshots written before nodes carried
	// checkpoints and payload statuses. Read only by the schema migration.
	forkchoiceLegacySnapshotKey = []byte("forkchoice-snapshot-legacy")
)
