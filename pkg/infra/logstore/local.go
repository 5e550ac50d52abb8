package logstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Local saves build logs as plain files under a directory.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed and returns a file-based log store.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create log directory", goerr.V("dir", dir))
	}
	return &Local{dir: dir}, nil
}

// Save writes the log to <dir>/<id>.log and returns the absolute path.
func (s *Local) Save(ctx context.Context, id string, log []byte) (string, error) {
	// Delivery IDs come from webhook headers; never let them escape the log dir
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", goerr.New("invalid log id", goerr.V("id", id))
	}

	path := filepath.Join(s.dir, id+".log")
	if err := os.WriteFile(path, log, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write build log", goerr.V("path", path))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
