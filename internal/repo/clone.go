// Package repo acquires project repositories into scoped working directories
// and builds retrieval indexes over their contents.
package repo

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Cloner fetches a repository into dir.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner clones with go-git, fetching only the default branch tip.
type GitCloner struct{}

// Clone performs a shallow single-branch clone of url into dir.
func (GitCloner) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}
