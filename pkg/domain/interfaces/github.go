package interfaces

import (
	"context"
)

// GitHubClient defines operations for interacting with GitHub API
type GitHubClient interface {
	// DownloadZipball downloads the source code zipball for a ref (tag, branch or SHA)
	DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error)

	// ResolveCommitSHA resolves a ref to its commit SHA
	ResolveCommitSHA(ctx context.Context, owner, repo, ref string) (string, error)

	// CreateCommitStatus reports a commit status for a SHA
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *CommitStatus) error
}

// CommitStatus is the status reported back to GitHub for a release commit.
type CommitStatus struct {
	State       string // pending, success, failure or error
	Description string
	TargetURL   string
}
