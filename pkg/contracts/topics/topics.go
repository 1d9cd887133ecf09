package topics

const (
	// Snapshots do ledger (sync-server)
	SnapshotSaved   = "ledger_snapshot_saved"
	SnapshotDeleted = "ledger_snapshot_deleted"
)
