package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Backend implements Repository on top of a go-git working copy.
type Backend struct {
	repo     *gogit.Repository
	repoPath string
	trusted  bool
}

var _ Repository = (*Backend)(nil)

// OpenOptions controls how a working copy is opened.
type OpenOptions struct {
	// Trust opens the repository regardless of on-disk ownership metadata.
	// go-git performs no ownership validation of its own today; the option is
	// recorded so the contract stays explicit rather than a hidden global.
	Trust bool
}

// Open opens an existing working copy at path.
func Open(path string, opts OpenOptions) (*Backend, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("open repo %s: %w", path, err)
	}
	return &Backend{repo: repo, repoPath: path, trusted: opts.Trust}, nil
}

// gitDir returns the path to the repository's .git directory.
func (b *Backend) gitDir() string {
	return filepath.Join(b.repoPath, ".git")
}

// Head returns the commit HEAD currently resolves to.
func (b *Backend) Head() (plumbing.Hash, error) {
	ref, err := b.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash(), nil
}

// ResolveReference resolves a full reference name to a commit hash, peeling
// annotated tags to their target commit.
func (b *Backend) ResolveReference(name string) (plumbing.Hash, error) {
	ref, err := b.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", name, err)
	}
	return b.peel(ref.Hash())
}

// peel follows annotated tag objects down to the underlying commit.
func (b *Backend) peel(h plumbing.Hash) (plumbing.Hash, error) {
	for {
		tag, err := b.repo.TagObject(h)
		if err != nil {
			// Not a tag object: already a commit (or tree/blob, which the
			// caller will surface when it tries to use it).
			return h, nil
		}
		h = tag.Target
	}
}

// ListReferences returns the full names of all references matching prefix.
func (b *Backend) ListReferences(prefix string) ([]string, error) {
	iter, err := b.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), prefix) {
			names = append(names, ref.Name().String())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return names, nil
}

// BranchExists reports whether the named local branch exists.
func (b *Backend) BranchExists(name string) (bool, error) {
	_, err := b.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup branch %s: %w", name, err)
	}
	return true, nil
}

// CreateBranch creates a local branch at the given commit without moving HEAD.
func (b *Backend) CreateBranch(name string, at plumbing.Hash) error {
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := b.repo.Reference(refName, false); err == nil {
		return fmt.Errorf("branch %s already exists", name)
	}
	ref := plumbing.NewHashReference(refName, at)
	if err := b.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// CheckoutBranch checks out the named local branch.
func (b *Backend) CheckoutBranch(name string) error {
	wt, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	opts := &gogit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Force: true}
	if err := wt.Checkout(opts); err != nil {
		return fmt.Errorf("checkout branch %s: %w", name, err)
	}
	return nil
}

// CheckoutDetached detaches HEAD at the given commit.
func (b *Backend) CheckoutDetached(at plumbing.Hash) error {
	wt, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: at, Force: true}); err != nil {
		return fmt.Errorf("checkout %s: %w", at.String()[:8], err)
	}
	return nil
}

// FastForward moves the named branch and the working tree to the given commit.
// No commit object is created.
func (b *Backend) FastForward(branch string, to plumbing.Hash) error {
	refName := plumbing.NewBranchReferenceName(branch)
	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(refName, to)); err != nil {
		return fmt.Errorf("repoint branch %s: %w", branch, err)
	}
	wt, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: to, Mode: gogit.HardReset}); err != nil {
		return fmt.Errorf("fast-forward reset: %w", err)
	}
	return nil
}

// Remotes returns the names of the configured remotes.
func (b *Backend) Remotes() ([]string, error) {
	remotes, err := b.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	return names, nil
}
