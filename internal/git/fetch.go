package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
)

// Fetch updates the remote-tracking reference for branch from the named
// remote. The refspec is explicit so shallow or single-branch clones still
// receive the needed history; when tags is set a second refspec pulls in all
// tag references.
func (b *Backend) Fetch(remote, branch string, tags bool) error {
	refspecs := []gitcfg.RefSpec{
		gitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)),
	}
	tagMode := gogit.NoTags
	if tags {
		refspecs = append(refspecs, gitcfg.RefSpec("+refs/tags/*:refs/tags/*"))
		tagMode = gogit.AllTags
	}
	opts := &gogit.FetchOptions{
		RemoteName: remote,
		RefSpecs:   refspecs,
		Tags:       tagMode,
		Force:      true,
	}
	if err := b.repo.Fetch(opts); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return classifyFetchError(err)
	}
	return nil
}
