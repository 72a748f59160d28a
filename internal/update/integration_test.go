package update

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoupdate/internal/config"
	"git.home.luguber.info/inful/repoupdate/internal/git"
)

// testPair is a local working copy cloned from an on-disk remote.
type testPair struct {
	remoteRepo *gogit.Repository
	remoteDir  string
	localRepo  *gogit.Repository
	localDir   string
	backend    *git.Backend
}

func setupPair(t *testing.T) *testPair {
	t.Helper()
	remoteDir := t.TempDir()
	remoteRepo, err := gogit.PlainInit(remoteDir, false)
	require.NoError(t, err)
	commitFile(t, remoteRepo, remoteDir, "a.txt", "A", "A")

	localDir := t.TempDir()
	localRepo, err := gogit.PlainClone(localDir, false, &gogit.CloneOptions{URL: remoteDir})
	require.NoError(t, err)

	backend, err := git.Open(localDir, git.OpenOptions{})
	require.NoError(t, err)
	return &testPair{
		remoteRepo: remoteRepo,
		remoteDir:  remoteDir,
		localRepo:  localRepo,
		localDir:   localDir,
		backend:    backend,
	}
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &gogit.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	return hash
}

func runUpdate(t *testing.T, p *testPair, stable bool) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	updater := New(p.backend, config.Default(), NewEmitter(buf))
	return buf, updater.Run(context.Background(), p.localDir, stable)
}

// markerValue returns the value of the first occurrence of a marker.
func markerValue(buf *bytes.Buffer, marker string) string {
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "["+marker+"] ") {
			return strings.TrimPrefix(line, "["+marker+"] ")
		}
	}
	return ""
}

func TestNoOpIdempotence(t *testing.T) {
	p := setupPair(t)

	buf1, err := runUpdate(t, p, false)
	require.NoError(t, err)
	buf2, err := runUpdate(t, p, false)
	require.NoError(t, err)

	// The second run changes nothing: identical pre/post heads, no new commit.
	assert.Equal(t, markerValue(buf1, MarkerPostUpdateHead), markerValue(buf2, MarkerPreUpdateHead))
	assert.Equal(t, markerValue(buf2, MarkerPreUpdateHead), markerValue(buf2, MarkerPostUpdateHead))

	head, err := p.localRepo.Head()
	require.NoError(t, err)
	commit, err := p.localRepo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.NotEqual(t, "Merge!", commit.Message)
}

func TestFastForwardCorrectness(t *testing.T) {
	p := setupPair(t)
	b := commitFile(t, p.remoteRepo, p.remoteDir, "b.txt", "B", "B")

	buf, err := runUpdate(t, p, false)
	require.NoError(t, err)

	// Re-open the working copy: the fetched commit arrived in a packfile the
	// pre-update handle never rescans.
	local, err := gogit.PlainOpen(p.localDir)
	require.NoError(t, err)

	head, err := local.Head()
	require.NoError(t, err)
	assert.Equal(t, b, head.Hash(), "HEAD must equal the remote commit after fast-forward")
	assert.Equal(t, b.String(), markerValue(buf, MarkerPostUpdateHead))

	// No merge commit was introduced: B's sole parent chain is linear.
	commit, err := local.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Len(t, commit.ParentHashes, 1)
	assert.NotEqual(t, "Merge!", commit.Message)

	// The fetched file landed in the working tree.
	data, err := os.ReadFile(filepath.Join(p.localDir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestDivergedHistoriesMerge(t *testing.T) {
	p := setupPair(t)
	commitFile(t, p.remoteRepo, p.remoteDir, "remote.txt", "R", "remote work")
	local := commitFile(t, p.localRepo, p.localDir, "local.txt", "L", "local work")

	buf, err := runUpdate(t, p, false)
	require.NoError(t, err)

	head, err := p.localRepo.Head()
	require.NoError(t, err)
	commit, err := p.localRepo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Merge!", commit.Message)
	require.Len(t, commit.ParentHashes, 2)
	assert.Equal(t, local, commit.ParentHashes[0])
	assert.Equal(t, head.Hash().String(), markerValue(buf, MarkerPostUpdateHead))

	for _, name := range []string{"local.txt", "remote.txt"} {
		_, err := os.Stat(filepath.Join(p.localDir, name))
		assert.NoError(t, err, name)
	}
}

func TestConflictSafety(t *testing.T) {
	p := setupPair(t)
	commitFile(t, p.remoteRepo, p.remoteDir, "a.txt", "remote edit", "remote edit")
	pre := commitFile(t, p.localRepo, p.localDir, "a.txt", "local edit", "local edit")

	buf, err := runUpdate(t, p, false)
	var conflictErr *git.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Entries, 1)
	assert.Equal(t, "a.txt", conflictErr.Entries[0].Path)

	// No commit was performed.
	head, err := p.localRepo.Head()
	require.NoError(t, err)
	assert.Equal(t, pre, head.Hash())

	// The backup branch still resolves to the pre-update commit.
	backup := markerValue(buf, MarkerBackupBranch)
	require.NotEmpty(t, backup)
	got, err := p.backend.ResolveReference("refs/heads/" + backup)
	require.NoError(t, err)
	assert.Equal(t, pre, got)

	// The merge-in-progress state is left for manual resolution.
	_, err = os.Stat(filepath.Join(p.localDir, ".git", "MERGE_HEAD"))
	assert.NoError(t, err)
}

func TestSnapshotNonRestoration(t *testing.T) {
	p := setupPair(t)
	commitFile(t, p.remoteRepo, p.remoteDir, "b.txt", "B", "B")

	// Uncommitted local edit present before the update.
	require.NoError(t, os.WriteFile(filepath.Join(p.localDir, "a.txt"), []byte("uncommitted edit"), 0o600))

	_, err := runUpdate(t, p, false)
	require.NoError(t, err)

	// The working tree after update does not contain the pre-update edit.
	data, err := os.ReadFile(filepath.Join(p.localDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))

	// The edit remains retrievable via the snapshot reference.
	snapshots, err := p.backend.ListReferences("refs/snapshots/")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	snapHash, err := p.backend.ResolveReference(snapshots[0])
	require.NoError(t, err)
	snapCommit, err := p.localRepo.CommitObject(snapHash)
	require.NoError(t, err)
	file, err := snapCommit.File("a.txt")
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	assert.Equal(t, "uncommitted edit", content)
}

func TestDetachedPin(t *testing.T) {
	p := setupPair(t)
	old, err := p.remoteRepo.Head()
	require.NoError(t, err)
	newer := commitFile(t, p.remoteRepo, p.remoteDir, "b.txt", "B", "B")

	setTag := func(name string, at plumbing.Hash) {
		ref := plumbing.NewHashReference(plumbing.ReferenceName("refs/tags/"+name), at)
		require.NoError(t, p.remoteRepo.Storer.SetReference(ref))
	}
	setTag("v1.2.3", old.Hash())
	setTag("v1.10.0", newer)
	setTag("v2.0.0-rc", old.Hash())

	buf, err := runUpdate(t, p, true)
	require.NoError(t, err)

	assert.Equal(t, "v1.10.0", markerValue(buf, MarkerCheckedOutTag))

	head, err := p.localRepo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.HEAD, head.Name(), "HEAD must be detached")
	assert.Equal(t, newer, head.Hash())
	assert.Equal(t, newer.String(), markerValue(buf, MarkerPostUpdateHead))
}
