package git

import (
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/repoupdate/internal/config"
)

// snapshotRefPrefix is the namespace snapshots are stored under. Snapshots
// are never deleted or restored by this tool; recovery is a manual step.
const snapshotRefPrefix = "refs/snapshots/"

// Snapshot captures uncommitted working-tree and index changes into a commit
// referenced under refs/snapshots/, then resets the working tree back to the
// pre-snapshot HEAD. The branch HEAD pointed at is left where it was, so the
// snapshot hangs off the history without appearing on any branch.
//
// Returns ErrNothingToSnapshot when the working copy carries no changes.
func (b *Backend) Snapshot(ident config.Identity) (string, error) {
	wt, err := b.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToSnapshot
	}

	head, err := b.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	sig := &object.Signature{Name: ident.Name, Email: ident.Email, When: time.Now()}
	snapshot, err := wt.Commit("Snapshot of local changes before update", &gogit.CommitOptions{
		All:       true,
		Author:    sig,
		Committer: sig,
	})
	if errors.Is(err, gogit.ErrEmptyCommit) {
		// Only untracked files present: nothing a snapshot would carry.
		return "", ErrNothingToSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("snapshot commit: %w", err)
	}

	refName := snapshotRefPrefix + time.Now().Format("2006-01-02_15_04_05")
	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(refName), snapshot)); err != nil {
		return "", fmt.Errorf("record snapshot ref: %w", err)
	}

	// The commit moved the current branch; put it back and drop the captured
	// changes from the working tree, exactly like a stash save.
	if head.Name().IsBranch() {
		if err := b.repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), head.Hash())); err != nil {
			return "", fmt.Errorf("restore branch ref: %w", err)
		}
	} else {
		if err := b.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, head.Hash())); err != nil {
			return "", fmt.Errorf("restore HEAD: %w", err)
		}
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: head.Hash(), Mode: gogit.HardReset}); err != nil {
		return "", fmt.Errorf("reset after snapshot: %w", err)
	}
	return refName, nil
}

// ResetIndex rewrites the index to exactly match the current HEAD's tree and
// persists it, leaving the working tree untouched. Used as the repair step
// when snapshot creation fails on an inconsistent index.
func (b *Backend) ResetIndex() error {
	wt, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	head, err := b.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: head.Hash(), Mode: gogit.MixedReset}); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	return nil
}
