package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

type checkoutUseCase struct {
	githubClient interfaces.GitHubClient
}

// NewCheckout creates a new instance of CheckoutUseCase
func NewCheckout(githubClient interfaces.GitHubClient) interfaces.CheckoutUseCase {
	return &checkoutUseCase{
		githubClient: githubClient,
	}
}

// CheckoutRelease downloads the source zipball for the release tag and
// extracts it to a temporary directory. The zipball is fetched by tag name,
// not target_commitish: the commitish may be a branch that has moved since
// the release was published.
func (uc *checkoutUseCase) CheckoutRelease(ctx context.Context, info *model.ReleaseInfo) (*model.Checkout, error) {
	logger := ctxlog.From(ctx)

	logger.Info("Checking out release source",
		"owner", info.Owner,
		"repo", info.Repo,
		"tag_name", info.TagName,
	)

	zipData, err := uc.githubClient.DownloadZipball(ctx, info.Owner, info.Repo, info.TagName)
	if err != nil {
		return nil, fmt.Errorf("failed to download zipball for %s@%s: %w", info.FullName(), info.TagName, err)
	}

	logger.Info("Downloaded zipball",
		"size_bytes", len(zipData),
		"owner", info.Owner,
		"repo", info.Repo,
	)

	result, err := uc.extractZip(ctx, zipData)
	if err != nil {
		return nil, fmt.Errorf("failed to extract zip for %s: %w", info.FullName(), err)
	}

	logger.Info("Extracted zipball to temporary directory",
		"temp_dir", result.TempDir,
		"context_dir", result.ContextDir,
		"file_count", len(result.Files),
		"total_size_bytes", result.Size,
	)

	return result, nil
}

// extractZip extracts ZIP data to a temporary directory
func (uc *checkoutUseCase) extractZip(ctx context.Context, zipData []byte) (*model.Checkout, error) {
	logger := ctxlog.From(ctx)

	tempDir, err := os.MkdirTemp("", "stevedore-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}

	if err := os.Chmod(tempDir, 0700); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to set directory permissions for %s: %w", tempDir, err)
	}

	logger.Debug("Created temporary directory", "temp_dir", tempDir)

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to create zip reader: %w", err)
	}

	var extractedFiles []string
	var totalSize int64

	for _, file := range zipReader.File {
		if err := uc.extractFile(file, tempDir); err != nil {
			_ = os.RemoveAll(tempDir)
			return nil, fmt.Errorf("failed to extract file %s: %w", file.Name, err)
		}

		extractedFiles = append(extractedFiles, file.Name)
		totalSize += int64(file.UncompressedSize64)
	}

	contextDir, err := findContextDir(tempDir)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, err
	}

	return &model.Checkout{
		TempDir:    tempDir,
		ContextDir: contextDir,
		Files:      extractedFiles,
		Size:       totalSize,
	}, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func (uc *checkoutUseCase) extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("invalid file path detected: file=%s, dest=%s", file.Name, destPath)
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %s in zip: %w", file.Name, err)
	}
	defer rc.Close()

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories %s: %w", filepath.Dir(destPath), err)
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return fmt.Errorf("failed to copy file content to %s: %w", destPath, err)
	}

	return nil
}

// findContextDir locates the build context inside the extracted tree. GitHub
// zipballs wrap the repository in a single "owner-repo-sha" directory; when
// exactly one directory is present it becomes the context, otherwise the
// extraction root is used as-is.
func findContextDir(tempDir string) (string, error) {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted directory %s: %w", tempDir, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}

	if len(entries) == 1 && len(dirs) == 1 {
		return filepath.Join(tempDir, dirs[0]), nil
	}
	return tempDir, nil
}
