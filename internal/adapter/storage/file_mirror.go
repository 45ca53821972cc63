package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileMirror keeps the serialized collection in a single local file,
// written atomically via a temp file and rename.
type FileMirror struct {
	path string
	mu   sync.Mutex
}

func NewFileMirror(path string) *FileMirror {
	return &FileMirror{path: path}
}

func (f *FileMirror) Load(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mirror: %w", err)
	}
	return payload, nil
}

func (f *FileMirror) Save(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".inventory-*")
	if err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("save mirror: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	return nil
}
