package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileAdapter stores each collection as <name>.json under a base directory.
// Writes go through a temp file plus rename so a crash mid-write cannot leave
// a truncated collection behind.
type FileAdapter struct {
	basePath string
}

// NewFileAdapter creates the base directory if missing.
func NewFileAdapter(basePath string) (*FileAdapter, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("persist: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileAdapter{basePath: basePath}, nil
}

// Load reads the collection file. A missing file means the collection has
// never been saved.
func (f *FileAdapter) Load(_ context.Context, collection string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(collection))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read collection %s: %w", collection, err)
	}
	return data, true, nil
}

// Save atomically replaces the collection file.
func (f *FileAdapter) Save(_ context.Context, collection string, data []byte) error {
	target := f.path(collection)
	tmp, err := os.CreateTemp(f.basePath, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close collection %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace collection %s: %w", collection, err)
	}
	return nil
}

func (f *FileAdapter) path(collection string) string {
	return filepath.Join(f.basePath, safeName(collection)+".json")
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "collection"
	}
	return name
}
