package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func TestFileMirror_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	mirror := NewFileMirror(path)
	ctx := context.Background()

	payload := []byte(`[{"id":"a","name":"Rice"}]`)
	if err := mirror.Save(ctx, payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := mirror.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("expected %s, got %s", payload, got)
	}
}

func TestFileMirror_LoadAbsent(t *testing.T) {
	mirror := NewFileMirror(filepath.Join(t.TempDir(), "missing.json"))

	got, err := mirror.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil payload for absent slot, got %s", got)
	}
}

func TestFileMirror_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "inventory.json")
	mirror := NewFileMirror(path)
	ctx := context.Background()

	if err := mirror.Save(ctx, []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := mirror.Load(ctx)
	if err != nil || string(got) != "[]" {
		t.Errorf("expected [] back, got %s (err %v)", got, err)
	}
}

func TestFileMirror_OverwritesInFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	mirror := NewFileMirror(path)
	ctx := context.Background()

	mirror.Save(ctx, []byte(`[{"id":"a"},{"id":"b"}]`))
	mirror.Save(ctx, []byte(`[{"id":"b"}]`))

	got, _ := mirror.Load(ctx)
	if string(got) != `[{"id":"b"}]` {
		t.Errorf("expected full overwrite, got %s", got)
	}
}
