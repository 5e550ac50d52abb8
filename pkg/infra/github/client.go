package github

import (
	"context"
	"io"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

type client struct {
	githubClient *github.Client
}

// NewAppClient creates a GitHub client authenticated as a GitHub App
// installation.
func NewAppClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID))
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// NewTokenClient creates a GitHub client authenticated with a personal
// access token or an Actions-style installation token.
func NewTokenClient(token string) interfaces.GitHubClient {
	return &client{
		githubClient: github.NewClient(nil).WithAuthToken(token),
	}
}

// DownloadZipball downloads the source code zipball for a ref (tag, branch or SHA)
func (c *client) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	// Resolve the redirect target first; the archive itself is served from a
	// different host than the API.
	url, _, err := c.githubClient.Repositories.GetArchiveLink(ctx, owner, repo, github.Zipball, &github.RepositoryContentGetOptions{
		Ref: ref,
	}, 3)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get zipball download URL",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("ref", ref))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("url", url.String()))
	}

	// Reuse the API client transport so the download is authenticated the
	// same way as the API call.
	httpClient := &http.Client{Transport: c.githubClient.Client().Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball", goerr.V("url", url.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code for zipball download",
			goerr.V("code", resp.StatusCode), goerr.V("url", url.String()))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read zipball response body")
	}

	return data, nil
}

// ResolveCommitSHA resolves a ref to its commit SHA
func (c *client) ResolveCommitSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	sha, _, err := c.githubClient.Repositories.GetCommitSHA1(ctx, owner, repo, ref, "")
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve commit SHA",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("ref", ref))
	}
	return sha, nil
}

// CreateCommitStatus reports a commit status for a SHA
func (c *client) CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *interfaces.CommitStatus) error {
	repoStatus := &github.RepoStatus{
		State:       github.Ptr(status.State),
		Description: github.Ptr(status.Description),
		Context:     github.Ptr(types.CommitStatusContext),
	}
	if status.TargetURL != "" {
		repoStatus.TargetURL = github.Ptr(status.TargetURL)
	}

	if _, _, err := c.githubClient.Repositories.CreateStatus(ctx, owner, repo, sha, repoStatus); err != nil {
		return goerr.Wrap(err, "failed to create commit status",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("sha", sha),
			goerr.V("state", status.State))
	}

	return nil
}
