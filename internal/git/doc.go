// Package git provides the repository backend for repoupdate: an abstract
// capability interface over a version-controlled working copy, and a concrete
// implementation backed by go-git.
//
// This package handles Git operations including:
//   - Reference resolution and enumeration
//   - Merge-analysis classification (up-to-date, fast-forward, normal merge)
//   - Three-way tree merges with per-path conflict detection
//   - Working-state snapshots ("stash") with an index-repair fallback
//   - Fetching with explicit refspecs so shallow or single-branch clones
//     still receive the needed history
//   - Typed errors for structured error handling
//
// The orchestration logic in internal/update consumes only the Repository
// interface, keeping it testable against a fake backend independent of real
// repository I/O.
package git
