package github_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	githubinfra "github.com/m-mizutani/stevedore/pkg/infra/github"
)

func TestNewTokenClient(t *testing.T) {
	client := githubinfra.NewTokenClient("ghp_dummy_token")
	gt.Value(t, client).NotNil()
}

func TestNewAppClientInvalidKey(t *testing.T) {
	_, err := githubinfra.NewAppClient(12345, 67890, []byte("not a private key"))
	gt.Error(t, err)
}

func TestNewAppClient(t *testing.T) {
	// This test requires GitHub App credentials from environment variables
	appID := os.Getenv("TEST_GITHUB_APP_ID")
	installationID := os.Getenv("TEST_GITHUB_INSTALLATION_ID")
	privateKeyFile := os.Getenv("TEST_GITHUB_PRIVATE_KEY_FILE")

	if appID == "" || installationID == "" || privateKeyFile == "" {
		t.Skip("Test GitHub App credentials not provided via environment variables")
	}

	appIDInt, err := strconv.ParseInt(appID, 10, 64)
	gt.NoError(t, err)

	installationIDInt, err := strconv.ParseInt(installationID, 10, 64)
	gt.NoError(t, err)

	privateKey, err := os.ReadFile(privateKeyFile)
	gt.NoError(t, err)

	client, err := githubinfra.NewAppClient(appIDInt, installationIDInt, privateKey)
	gt.NoError(t, err)
	gt.Value(t, client).NotNil()
}

func TestClientWithRealAPI(t *testing.T) {
	// Integration test with the real GitHub API
	token := os.Getenv("TEST_GITHUB_TOKEN")
	repository := os.Getenv("TEST_GITHUB_REPOSITORY")
	ref := os.Getenv("TEST_GITHUB_REF")

	if token == "" || repository == "" || ref == "" {
		t.Skip("TEST_GITHUB_TOKEN, TEST_GITHUB_REPOSITORY or TEST_GITHUB_REF not provided")
	}

	owner, repo, ok := strings.Cut(repository, "/")
	if !ok {
		t.Fatalf("TEST_GITHUB_REPOSITORY must be owner/name: %s", repository)
	}

	client := githubinfra.NewTokenClient(token)
	ctx := context.Background()

	sha, err := client.ResolveCommitSHA(ctx, owner, repo, ref)
	gt.NoError(t, err)
	gt.Number(t, len(sha)).Equal(40)

	data, err := client.DownloadZipball(ctx, owner, repo, ref)
	gt.NoError(t, err)
	gt.Number(t, len(data)).Greater(0)
}
