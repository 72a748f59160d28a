package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/repoupdate/internal/config"
	"git.home.luguber.info/inful/repoupdate/internal/git"
	"git.home.luguber.info/inful/repoupdate/internal/journal"
	"git.home.luguber.info/inful/repoupdate/internal/logfields"
	"git.home.luguber.info/inful/repoupdate/internal/versioning"
)

// backupBranchTimeFormat gives sortable, filesystem-safe branch names at
// second resolution.
const backupBranchTimeFormat = "2006-01-02_15_04_05"

// Updater sequences a single update run against one working copy. The
// working copy is exclusively owned by this process for the run's duration;
// no concurrent session against the same copy is supported.
type Updater struct {
	repo    git.Repository
	cfg     *config.Config
	emitter *Emitter
	journal *journal.Journal // optional
	now     func() time.Time
}

// New creates an Updater over the given backend.
func New(repo git.Repository, cfg *config.Config, emitter *Emitter) *Updater {
	return &Updater{repo: repo, cfg: cfg, emitter: emitter, now: time.Now}
}

// WithJournal attaches an optional run journal (fluent helper).
func (u *Updater) WithJournal(j *journal.Journal) *Updater { u.journal = j; return u }

// Run executes the full update workflow. Stable requests fetching all tags
// and pinning the result to the latest numeric version tag.
func (u *Updater) Run(ctx context.Context, repoPath string, stable bool) error {
	record := journal.Run{RepoPath: repoPath}
	if u.journal != nil {
		id, err := u.journal.Begin(ctx, repoPath)
		if err != nil {
			slog.Warn("Could not start journal entry", logfields.Error(err))
		} else {
			record.ID = id
		}
	}

	err := u.run(stable, &record)

	if u.journal != nil && record.ID != "" {
		record.Outcome = "success"
		if err != nil {
			record.Outcome = "failure"
			record.Error = err.Error()
		}
		if jerr := u.journal.Finish(ctx, record); jerr != nil {
			slog.Warn("Could not finish journal entry", logfields.Error(jerr))
		}
	}
	return err
}

func (u *Updater) run(stable bool, record *journal.Run) error {
	pre, err := u.repo.Head()
	if err != nil {
		return err
	}
	u.emitter.Emit(MarkerPreUpdateHead, pre.String())
	record.PreHead = pre.String()

	if err := u.snapshot(); err != nil {
		return err
	}

	if name, ok := u.createBackupBranch(pre); ok {
		u.emitter.Emit(MarkerBackupBranch, name)
		record.BackupBranch = name
	}

	if err := u.fetch(stable); err != nil {
		return err
	}

	if err := u.checkoutTrackedBranch(); err != nil {
		return err
	}

	if err := u.pull(); err != nil {
		return err
	}

	if stable {
		tag, err := u.pinToLatestTag()
		if err != nil {
			return err
		}
		record.Tag = tag
	}

	post, err := u.repo.Head()
	if err != nil {
		return err
	}
	u.emitter.Emit(MarkerPostUpdateHead, post.String())
	record.PostHead = post.String()

	slog.Info("Update complete", logfields.Commit(post.String()))
	return nil
}

// snapshot captures uncommitted local changes. A clean working copy is not an
// error. A first failure triggers the repair path: clear any in-progress
// merge state, reset the index to HEAD's tree, and retry once. The snapshot
// is retained purely as a recovery aid; it is never restored by this run.
func (u *Updater) snapshot() error {
	slog.Info("Stashing current changes")
	ref, err := u.repo.Snapshot(u.cfg.Identity)
	if err == nil {
		slog.Info("Captured snapshot", logfields.Snapshot(ref))
		return nil
	}
	if errors.Is(err, git.ErrNothingToSnapshot) {
		slog.Info("Nothing to stash")
		return nil
	}

	slog.Warn("Could not stash, cleaning index and trying again", logfields.Error(err))
	if cerr := u.repo.StateCleanup(); cerr != nil {
		return fmt.Errorf("state cleanup: %w", cerr)
	}
	if rerr := u.repo.ResetIndex(); rerr != nil {
		return fmt.Errorf("reset index: %w", rerr)
	}
	ref, err = u.repo.Snapshot(u.cfg.Identity)
	if err == nil {
		slog.Info("Captured snapshot", logfields.Snapshot(ref))
		return nil
	}
	if errors.Is(err, git.ErrNothingToSnapshot) {
		slog.Info("Nothing to stash")
		return nil
	}
	return fmt.Errorf("snapshot failed after index repair: %w", err)
}

// createBackupBranch records the pre-update position on a timestamped branch.
// Failure is a warning, not an error: the run continues without a backup.
func (u *Updater) createBackupBranch(at plumbing.Hash) (string, bool) {
	name := "backup_branch_" + u.now().Format(backupBranchTimeFormat)
	slog.Info("Creating backup branch", logfields.Branch(name))
	if err := u.repo.CreateBranch(name, at); err != nil {
		slog.Warn("Could not create backup branch", logfields.Branch(name), logfields.Error(err))
		return "", false
	}
	return name, true
}

// fetch updates the remote-tracking reference for the configured branch,
// including all tags when a stable pin was requested. A missing remote is
// skipped the way an unconfigured remote always has been; transport failures
// are fatal.
func (u *Updater) fetch(tags bool) error {
	remotes, err := u.repo.Remotes()
	if err != nil {
		return err
	}
	if !slices.Contains(remotes, u.cfg.Remote) {
		slog.Warn("Remote not configured, skipping fetch", logfields.Remote(u.cfg.Remote))
		return nil
	}
	slog.Info("Fetching", logfields.Remote(u.cfg.Remote), logfields.Branch(u.cfg.Branch))
	return u.repo.Fetch(u.cfg.Remote, u.cfg.Branch, tags)
}

// checkoutTrackedBranch ensures a local branch for the tracked branch exists,
// creating it from the remote-tracking reference if absent, and checks it out.
func (u *Updater) checkoutTrackedBranch() error {
	slog.Info("Checking out branch", logfields.Branch(u.cfg.Branch))
	exists, err := u.repo.BranchExists(u.cfg.Branch)
	if err != nil {
		return err
	}
	if !exists {
		target, err := u.repo.ResolveReference(u.remoteTrackingRef())
		if err != nil {
			return fmt.Errorf("no local branch %s and no remote-tracking ref: %w", u.cfg.Branch, err)
		}
		if err := u.repo.CreateBranch(u.cfg.Branch, target); err != nil {
			return err
		}
	}
	return u.repo.CheckoutBranch(u.cfg.Branch)
}

// pull classifies the divergence between the local branch and the freshly
// fetched remote-tracking reference and applies the appropriate update path.
func (u *Updater) pull() error {
	slog.Info("Pulling latest changes")
	remote, err := u.repo.ResolveReference(u.remoteTrackingRef())
	if err != nil {
		return err
	}
	local, err := u.repo.Head()
	if err != nil {
		return err
	}

	analysis, err := u.repo.Analyze(local, remote)
	if err != nil {
		return err
	}
	switch analysis {
	case git.AnalysisUpToDate:
		slog.Info("Already up to date")
		return nil
	case git.AnalysisFastForward:
		slog.Info("Fast-forwarding", logfields.Commit(remote.String()))
		return u.repo.FastForward(u.cfg.Branch, remote)
	case git.AnalysisNormalMerge:
		return u.merge(remote)
	default:
		return &git.UnknownAnalysisError{Analysis: analysis}
	}
}

// merge performs a three-way merge with the remote target. Conflicts are
// reported per path and abort the run, leaving the merge-in-progress state
// intact for manual resolution.
func (u *Updater) merge(remote plumbing.Hash) error {
	slog.Info("Merging diverged histories", logfields.Commit(remote.String()))
	commit, conflicts, err := u.repo.Merge(remote, u.cfg.Identity)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		reportConflicts(conflicts)
		return &git.ConflictError{Entries: conflicts}
	}
	slog.Info("Created merge commit", logfields.Commit(commit.String()))
	return nil
}

// pinToLatestTag selects the highest numeric version tag and detaches HEAD
// there. No surviving tag means the run stays on the tracked branch.
func (u *Updater) pinToLatestTag() (string, error) {
	refs, err := u.repo.ListReferences("refs/tags/")
	if err != nil {
		return "", err
	}
	ref, ok := versioning.SelectLatest(refs)
	if !ok {
		slog.Info("No stable tags found, staying on branch", logfields.Branch(u.cfg.Branch))
		return "", nil
	}

	tag := versioning.ShortName(ref)
	slog.Info("Checking out stable tag", logfields.Tag(tag))
	target, err := u.repo.ResolveReference(ref)
	if err != nil {
		return "", err
	}
	if err := u.repo.CheckoutDetached(target); err != nil {
		return "", err
	}
	u.emitter.Emit(MarkerCheckedOutTag, tag)
	return tag, nil
}

// remoteTrackingRef is the full name of the remote-tracking reference for the
// configured remote and branch.
func (u *Updater) remoteTrackingRef() string {
	return fmt.Sprintf("refs/remotes/%s/%s", u.cfg.Remote, u.cfg.Branch)
}

// reportConflicts writes one line per conflicted path with the sides present.
func reportConflicts(entries []git.ConflictEntry) {
	for _, entry := range entries {
		slog.Error("Conflict in: "+entry.Path,
			slog.Bool("base", entry.Base),
			slog.Bool("ours", entry.Ours),
			slog.Bool("theirs", entry.Theirs),
		)
	}
}
