package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"

	"abstraktor/internal/targets"
)

// DefaultExtensions are the C/C++ sources the compiler wrapper instruments.
var DefaultExtensions = []string{".c", ".h", ".cc", ".cpp", ".hpp"}

// Loader discovers, reads and writes files for the scanner. It is the only
// place the CLI touches the file system.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a loader backed by the local file system.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// NormalizeExtensions lower-cases extensions and adds the leading dot. Empty
// entries are dropped.
func NormalizeExtensions(exts []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return allowed
}

// Matches reports whether path has one of the allowed extensions.
func Matches(path string, allowed map[string]struct{}) bool {
	_, ok := allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Discover returns the files to scan under root. A file root is returned as
// is, whatever its extension. A directory is walked recursively, skipping
// hidden directories, and files matching exts are returned sorted.
func (l *Loader) Discover(ctx context.Context, root string, exts []string) ([]string, error) {
	object, err := l.fs.Object(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !object.IsDir() {
		return []string{root}, nil
	}

	allowed := NormalizeExtensions(exts)
	var files []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return !isHidden(info.Name()), nil
		}
		path := filepath.Join(root, filepath.FromSlash(parent), info.Name())
		if Matches(path, allowed) {
			files = append(files, path)
		}
		return true, nil
	}
	if err := l.fs.Walk(ctx, root, visitor); err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every path. The first unreadable file aborts the batch.
func (l *Loader) Load(ctx context.Context, paths []string) ([]targets.Source, error) {
	sources := make([]targets.Source, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := l.fs.DownloadWithURL(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, targets.Source{Path: path, Content: string(content)})
	}
	return sources, nil
}

// Collect discovers and loads the sources under root.
func (l *Loader) Collect(ctx context.Context, root string, exts []string) ([]targets.Source, error) {
	paths, err := l.Discover(ctx, root, exts)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, paths)
}

// Write stores data at path, creating parent directories.
func (l *Loader) Write(ctx context.Context, path string, data []byte) error {
	if err := l.fs.Upload(ctx, path, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Remove deletes path; a missing file is not an error.
func (l *Loader) Remove(ctx context.Context, path string) error {
	exists, err := l.fs.Exists(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return nil
	}
	if err := l.fs.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (l *Loader) Exists(ctx context.Context, path string) (bool, error) {
	return l.fs.Exists(ctx, path)
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}
