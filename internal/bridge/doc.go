// Package bridge implements the reconciliation core for one AmbiSense
// device: the poll scheduler, the update orchestrator, and the consumer
// contract (Refresh, ApplyUpdates, Snapshot, Available).
package bridge
