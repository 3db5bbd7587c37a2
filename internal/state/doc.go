// Package state holds the reconciled device snapshot and the merge rules
// applied on every poll cycle.
package state
