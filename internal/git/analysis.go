package git

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
)

// Analyze classifies how remote relates to local by walking ancestry in both
// directions. Unrelated histories come back as AnalysisUnknown.
func (b *Backend) Analyze(local, remote plumbing.Hash) (MergeAnalysis, error) {
	if local == remote {
		return AnalysisUpToDate, nil
	}
	contained, err := b.isAncestor(remote, local)
	if err != nil {
		return AnalysisUnknown, err
	}
	if contained {
		return AnalysisUpToDate, nil
	}
	descends, err := b.isAncestor(local, remote)
	if err != nil {
		return AnalysisUnknown, err
	}
	if descends {
		return AnalysisFastForward, nil
	}
	base, err := b.mergeBase(local, remote)
	if err != nil {
		return AnalysisUnknown, err
	}
	if base == plumbing.ZeroHash {
		return AnalysisUnknown, nil
	}
	return AnalysisNormalMerge, nil
}

// isAncestor reports whether a is reachable from b.
func (b *Backend) isAncestor(a, from plumbing.Hash) (bool, error) {
	if a == from {
		return true, nil
	}
	seen := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{from}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if h == a {
			return true, nil
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		commit, err := b.repo.CommitObject(h)
		if err != nil {
			return false, err
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return false, nil
}

// errNoMergeBase distinguishes unrelated histories from lookup failures.
var errNoMergeBase = errors.New("no common ancestor")

// mergeBase returns a best common ancestor of a and b, or ZeroHash when the
// histories are unrelated.
func (b *Backend) mergeBase(a, c plumbing.Hash) (plumbing.Hash, error) {
	ca, err := b.repo.CommitObject(a)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	cc, err := b.repo.CommitObject(c)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	bases, err := ca.MergeBase(cc)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, nil
	}
	return bases[0].Hash, nil
}
