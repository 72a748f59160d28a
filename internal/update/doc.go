// Package update orchestrates the full working-copy update workflow:
// snapshot local changes, create a backup branch, fetch the tracked branch,
// fast-forward or merge, and optionally pin to the latest numeric version
// tag.
//
// Recovery contract: local modifications that existed before the update are
// captured in a snapshot (refs/snapshots/<timestamp>) and the pre-update
// position is recorded on a backup branch. The snapshot is NEVER reapplied by
// the update path itself — restoring it automatically could silently
// reintroduce changes that conflict with the just-fetched state. Recovery is
// always an explicit, operator-driven step using those references.
package update
