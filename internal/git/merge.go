package git

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/repoupdate/internal/config"
)

// mergeMessage is the fixed message written on every merge commit.
const mergeMessage = "Merge!"

// treeEntry is one path's state on a single side of the merge.
type treeEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// Merge performs a three-way merge of HEAD with theirs.
//
// Conflicts are detected at path level: a path both sides changed relative to
// the merge base, in different ways, is conflicting. On conflict the working
// tree is left untouched, merge-in-progress state (MERGE_HEAD) is written for
// external inspection, and no commit is created. On a clean merge the
// their-side changes are applied to the working tree and index and a
// two-parent commit is written.
func (b *Backend) Merge(theirs plumbing.Hash, ident config.Identity) (plumbing.Hash, []ConflictEntry, error) {
	ours, err := b.Head()
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	base, err := b.mergeBase(ours, theirs)
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("merge base: %w", err)
	}
	if base == plumbing.ZeroHash {
		return plumbing.ZeroHash, nil, errNoMergeBase
	}

	baseEntries, err := b.treeEntries(base)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	ourEntries, err := b.treeEntries(ours)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	theirEntries, err := b.treeEntries(theirs)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	conflicts, takeTheirs := resolvePaths(baseEntries, ourEntries, theirEntries)
	if len(conflicts) > 0 {
		if err := b.writeMergeState(theirs); err != nil {
			return plumbing.ZeroHash, nil, err
		}
		return plumbing.ZeroHash, conflicts, nil
	}

	wt, err := b.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("worktree: %w", err)
	}
	for _, path := range takeTheirs {
		entry, present := theirEntries[path]
		if !present {
			if _, err := wt.Remove(path); err != nil {
				return plumbing.ZeroHash, nil, fmt.Errorf("remove %s: %w", path, err)
			}
			continue
		}
		if err := b.writeBlobToWorktree(path, entry); err != nil {
			return plumbing.ZeroHash, nil, err
		}
		if _, err := wt.Add(path); err != nil {
			return plumbing.ZeroHash, nil, fmt.Errorf("stage %s: %w", path, err)
		}
	}

	sig := &object.Signature{Name: ident.Name, Email: ident.Email, When: time.Now()}
	// The merged tree can legitimately equal ours (both sides made the same
	// change); the merge commit must still be written.
	commit, err := wt.Commit(mergeMessage, &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           []plumbing.Hash{ours, theirs},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return plumbing.ZeroHash, nil, fmt.Errorf("merge commit: %w", err)
	}
	if err := b.StateCleanup(); err != nil {
		return plumbing.ZeroHash, nil, err
	}
	return commit, nil, nil
}

// resolvePaths walks the union of paths across the three trees and decides,
// per path, whether the their-side version must be taken or a conflict exists.
// Paths where ours already carries the result need no action.
func resolvePaths(base, ours, theirs map[string]treeEntry) (conflicts []ConflictEntry, takeTheirs []string) {
	paths := map[string]struct{}{}
	for p := range base {
		paths[p] = struct{}{}
	}
	for p := range ours {
		paths[p] = struct{}{}
	}
	for p := range theirs {
		paths[p] = struct{}{}
	}

	ordered := make([]string, 0, len(paths))
	for p := range paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	for _, p := range ordered {
		be, inBase := base[p]
		oe, inOurs := ours[p]
		te, inTheirs := theirs[p]

		switch {
		case inOurs == inTheirs && oe == te:
			// Identical on both sides (including both absent).
		case inBase == inOurs && be == oe:
			// Only theirs changed: take theirs (modification, addition, or deletion).
			takeTheirs = append(takeTheirs, p)
		case inBase == inTheirs && be == te:
			// Only ours changed: keep ours.
		default:
			conflicts = append(conflicts, ConflictEntry{Path: p, Base: inBase, Ours: inOurs, Theirs: inTheirs})
		}
	}
	return conflicts, takeTheirs
}

// treeEntries flattens a commit's tree into path -> entry.
func (b *Backend) treeEntries(commit plumbing.Hash) (map[string]treeEntry, error) {
	c, err := b.repo.CommitObject(commit)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", commit.String()[:8], err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	entries := map[string]treeEntry{}
	err = tree.Files().ForEach(func(f *object.File) error {
		entries[f.Name] = treeEntry{hash: f.Hash, mode: f.Mode}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree: %w", err)
	}
	return entries, nil
}

// writeBlobToWorktree materializes a blob at path inside the working tree.
func (b *Backend) writeBlobToWorktree(path string, entry treeEntry) error {
	blob, err := b.repo.BlobObject(entry.hash)
	if err != nil {
		return fmt.Errorf("load blob for %s: %w", path, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return fmt.Errorf("read blob for %s: %w", path, err)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read blob for %s: %w", path, err)
	}

	mode := os.FileMode(0o644)
	if osMode, merr := entry.mode.ToOSFileMode(); merr == nil {
		mode = osMode.Perm()
	}
	full := filepath.Join(b.repoPath, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, content, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeMergeState records a merge in progress so external git tooling can
// inspect and resolve it.
func (b *Backend) writeMergeState(theirs plumbing.Hash) error {
	if err := os.WriteFile(filepath.Join(b.gitDir(), "MERGE_HEAD"), []byte(theirs.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write MERGE_HEAD: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.gitDir(), "MERGE_MSG"), []byte(mergeMessage+"\n"), 0o644); err != nil {
		return fmt.Errorf("write MERGE_MSG: %w", err)
	}
	return nil
}

// StateCleanup removes any merge-in-progress state.
func (b *Backend) StateCleanup() error {
	for _, name := range []string{"MERGE_HEAD", "MERGE_MSG", "MERGE_MODE"} {
		if err := os.Remove(filepath.Join(b.gitDir(), name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
