package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/usecase"
)

// MockGitHubClient mocks the GitHub client for testing
type MockGitHubClient struct {
	downloadZipballFunc func(ctx context.Context, owner, repo, ref string) ([]byte, error)
	downloadCalls       []string
	statusCalls         []*interfaces.CommitStatus
	resolveSHA          string
}

func (m *MockGitHubClient) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	m.downloadCalls = append(m.downloadCalls, ref)
	if m.downloadZipballFunc != nil {
		return m.downloadZipballFunc(ctx, owner, repo, ref)
	}
	return nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) ResolveCommitSHA(ctx context.Context, owner, repo, ref string) (string, error) {
	if m.resolveSHA == "" {
		return "", errors.New("mock not configured")
	}
	return m.resolveSHA, nil
}

func (m *MockGitHubClient) CreateCommitStatus(ctx context.Context, owner, repo, sha string, status *interfaces.CommitStatus) error {
	m.statusCalls = append(m.statusCalls, status)
	return nil
}

func TestCheckoutRelease_Success(t *testing.T) {
	ctx := context.Background()

	zipData := createTestZip(t)

	mockClient := &MockGitHubClient{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return zipData, nil
		},
	}

	uc := usecase.NewCheckout(mockClient)

	releaseInfo := &model.ReleaseInfo{
		Owner:   "alex-dukhno",
		Repo:    "database",
		TagName: "v0.1.0",
		Ref:     "refs/tags/v0.1.0",
	}

	result, err := uc.CheckoutRelease(ctx, releaseInfo)
	gt.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(result.TempDir)
	}()

	gt.Value(t, result.TempDir).NotEqual("")
	gt.Number(t, len(result.Files)).Greater(0)
	gt.Number(t, result.Size).Greater(int64(0))

	// The single zipball root directory becomes the build context
	gt.Value(t, result.ContextDir).Equal(filepath.Join(result.TempDir, "alex-dukhno-database-11658e9"))

	content, err := os.ReadFile(filepath.Join(result.ContextDir, "Dockerfile"))
	gt.NoError(t, err)
	gt.String(t, string(content)).Contains("FROM rust")

	_, err = os.Stat(filepath.Join(result.ContextDir, "src", "main.rs"))
	gt.NoError(t, err)

	// The zipball must be fetched by tag, not by target_commitish
	gt.Number(t, len(mockClient.downloadCalls)).Equal(1)
	gt.Value(t, mockClient.downloadCalls[0]).Equal("v0.1.0")
}

func TestCheckoutRelease_DownloadError(t *testing.T) {
	ctx := context.Background()

	mockClient := &MockGitHubClient{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return nil, errors.New("download error")
		},
	}

	uc := usecase.NewCheckout(mockClient)

	result, err := uc.CheckoutRelease(ctx, &model.ReleaseInfo{
		Owner:   "alex-dukhno",
		Repo:    "database",
		TagName: "v0.1.0",
	})

	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.String(t, err.Error()).Contains("failed to download zipball")
}

func TestCheckoutRelease_InvalidZip(t *testing.T) {
	ctx := context.Background()

	mockClient := &MockGitHubClient{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return []byte("invalid zip data"), nil
		},
	}

	uc := usecase.NewCheckout(mockClient)

	result, err := uc.CheckoutRelease(ctx, &model.ReleaseInfo{
		Owner:   "alex-dukhno",
		Repo:    "database",
		TagName: "v0.1.0",
	})

	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.String(t, err.Error()).Contains("failed to extract zip")
}

func TestCheckoutRelease_PathTraversal(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	writer, err := zipWriter.Create("../escape.txt")
	gt.NoError(t, err)
	_, err = writer.Write([]byte("must not be written"))
	gt.NoError(t, err)
	gt.NoError(t, zipWriter.Close())

	mockClient := &MockGitHubClient{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return buf.Bytes(), nil
		},
	}

	uc := usecase.NewCheckout(mockClient)

	result, err := uc.CheckoutRelease(ctx, &model.ReleaseInfo{
		Owner:   "alex-dukhno",
		Repo:    "database",
		TagName: "v0.1.0",
	})

	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.String(t, err.Error()).Contains("invalid file path")
}

func TestCheckoutRelease_FlatZipUsesRoot(t *testing.T) {
	ctx := context.Background()

	// A zip without the usual single wrapper directory
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"Dockerfile": "FROM scratch\n",
		"README.md":  "# flat\n",
	} {
		writer, err := zipWriter.Create(name)
		gt.NoError(t, err)
		_, err = writer.Write([]byte(content))
		gt.NoError(t, err)
	}
	gt.NoError(t, zipWriter.Close())

	mockClient := &MockGitHubClient{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return buf.Bytes(), nil
		},
	}

	uc := usecase.NewCheckout(mockClient)

	result, err := uc.CheckoutRelease(ctx, &model.ReleaseInfo{
		Owner:   "alex-dukhno",
		Repo:    "database",
		TagName: "v0.1.0",
	})
	gt.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(result.TempDir)
	}()

	gt.Value(t, result.ContextDir).Equal(result.TempDir)
}

// createTestZip builds a zipball shaped like a GitHub source archive
func createTestZip(t *testing.T) []byte {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	files := map[string]string{
		"alex-dukhno-database-11658e9/Dockerfile":  "FROM rust:1.75 as builder\nWORKDIR /app\n",
		"alex-dukhno-database-11658e9/Cargo.toml":  "[package]\nname = \"database\"\nversion = \"0.1.0\"\n",
		"alex-dukhno-database-11658e9/src/main.rs": "fn main() {\n    println!(\"database\");\n}\n",
	}

	for filename, content := range files {
		writer, err := zipWriter.Create(filename)
		gt.NoError(t, err)

		_, err = writer.Write([]byte(content))
		gt.NoError(t, err)
	}

	gt.NoError(t, zipWriter.Close())

	return buf.Bytes()
}
