package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir removes catalog images stored under a root directory by the upload
// service. References are paths relative to the root, optionally with a
// leading "/uploads/" style prefix.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: filepath.Clean(root)}
}

// Remove deletes the referenced file. A missing file is not an error.
func (d *Dir) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", ref, err)
	}
	return nil
}

func (d *Dir) resolve(ref string) (string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(ref)), "/")
	rel = strings.TrimPrefix(rel, "uploads/")
	if rel == "" {
		return "", fmt.Errorf("empty image reference")
	}
	path := filepath.Join(d.root, filepath.FromSlash(rel))
	if path != d.root && !strings.HasPrefix(path, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("image reference %q escapes image root", ref)
	}
	return path, nil
}
