package git

import (
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/repoupdate/internal/config"
)

// MergeAnalysis classifies the relationship between the local HEAD and a
// remote target commit.
type MergeAnalysis int

const (
	// AnalysisUnknown means the histories are unrelated or the relationship
	// could not be determined. Callers must treat this as fatal.
	AnalysisUnknown MergeAnalysis = iota
	// AnalysisUpToDate means the local HEAD already contains the target.
	AnalysisUpToDate
	// AnalysisFastForward means the target is a strict descendant of the
	// local HEAD; updating only moves a pointer.
	AnalysisFastForward
	// AnalysisNormalMerge means the histories have diverged and a three-way
	// merge is required.
	AnalysisNormalMerge
)

func (a MergeAnalysis) String() string {
	switch a {
	case AnalysisUpToDate:
		return "up-to-date"
	case AnalysisFastForward:
		return "fast-forward"
	case AnalysisNormalMerge:
		return "normal-merge"
	default:
		return "unknown"
	}
}

// ConflictEntry records one conflicted path from a failed three-way merge,
// with the sides on which the path is present.
type ConflictEntry struct {
	Path   string
	Base   bool
	Ours   bool
	Theirs bool
}

// Repository is the backend capability set consumed by the updater.
// This is the key abstraction point for testing and backend swapping:
// one concrete implementation exists today (Backend, over go-git), and the
// orchestration logic never reaches past it.
type Repository interface {
	// Head returns the commit the working copy's HEAD currently resolves to.
	Head() (plumbing.Hash, error)

	// ResolveReference resolves a full reference name (e.g.
	// "refs/remotes/origin/master") to a commit hash.
	ResolveReference(name string) (plumbing.Hash, error)

	// ListReferences returns the full names of all references whose name
	// starts with the given prefix.
	ListReferences(prefix string) ([]string, error)

	// BranchExists reports whether a local branch with the given short name exists.
	BranchExists(name string) (bool, error)

	// CreateBranch creates a local branch pointing at the given commit.
	// It does not move HEAD.
	CreateBranch(name string, at plumbing.Hash) error

	// CheckoutBranch checks out the named local branch.
	CheckoutBranch(name string) error

	// CheckoutDetached detaches HEAD at the given commit and updates the
	// working tree to match.
	CheckoutDetached(at plumbing.Hash) error

	// Analyze classifies how remote relates to local.
	Analyze(local, remote plumbing.Hash) (MergeAnalysis, error)

	// FastForward moves the named branch and the working tree to the given
	// commit without creating a commit object.
	FastForward(branch string, to plumbing.Hash) error

	// Merge performs a three-way merge of HEAD with theirs using their merge
	// base. On a clean merge it writes a two-parent commit with the given
	// identity and returns its hash. On conflict it returns the conflict
	// entries, leaves the merge-in-progress state intact, and creates no
	// commit.
	Merge(theirs plumbing.Hash, ident config.Identity) (plumbing.Hash, []ConflictEntry, error)

	// Snapshot captures uncommitted working-tree and index changes into a
	// recoverable reference and returns its name. Returns
	// ErrNothingToSnapshot when the working copy is clean.
	Snapshot(ident config.Identity) (string, error)

	// ResetIndex rewrites the index to exactly match the current HEAD's
	// tree and persists it, leaving the working tree untouched.
	ResetIndex() error

	// StateCleanup removes any merge-in-progress state.
	StateCleanup() error

	// Fetch updates the remote-tracking reference for the given branch from
	// the named remote, optionally including all tags.
	Fetch(remote, branch string, tags bool) error

	// Remotes returns the names of the configured remotes.
	Remotes() ([]string, error)
}
