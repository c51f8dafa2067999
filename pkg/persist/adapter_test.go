package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func testAdapterRoundTrip(t *testing.T, adapter Adapter) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := adapter.Load(ctx, CollectionVideos); err != nil || ok {
		t.Fatalf("expected absent collection, ok=%v err=%v", ok, err)
	}

	payload := []byte(`[{"id":"1","createdAt":"2024-01-15T00:00:00Z"}]`)
	if err := adapter.Save(ctx, CollectionVideos, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, ok, err := adapter.Load(ctx, CollectionVideos)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(data) != string(payload) {
		t.Fatalf("payload corrupted: %s", data)
	}

	// Save replaces the whole collection, not a delta.
	if err := adapter.Save(ctx, CollectionVideos, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _, _ = adapter.Load(ctx, CollectionVideos)
	if string(data) != `[]` {
		t.Fatalf("overwrite not applied: %s", data)
	}

	// Collections are independent keys.
	if _, ok, _ := adapter.Load(ctx, CollectionLikes); ok {
		t.Fatalf("likes collection should be untouched")
	}
}

func TestMemoryAdapter(t *testing.T) {
	testAdapterRoundTrip(t, NewMemoryAdapter())
}

func TestFileAdapter(t *testing.T) {
	adapter, err := NewFileAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("new file adapter: %v", err)
	}
	testAdapterRoundTrip(t, adapter)
}

func TestRedisAdapter(t *testing.T) {
	redis := miniredis.RunT(t)
	adapter, err := NewRedisAdapter(redis.Addr(), "", "test:collections")
	if err != nil {
		t.Fatalf("new redis adapter: %v", err)
	}
	testAdapterRoundTrip(t, adapter)
}

func TestFileAdapterSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileAdapter(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Save(ctx, CollectionComments, []byte(`[{"id":"c1"}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := NewFileAdapter(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	data, ok, err := second.Load(ctx, CollectionComments)
	if err != nil || !ok {
		t.Fatalf("load after reopen: ok=%v err=%v", ok, err)
	}
	if string(data) != `[{"id":"c1"}]` {
		t.Fatalf("data lost across reopen: %s", data)
	}
}

func TestFileAdapterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	adapter, err := NewFileAdapter(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := adapter.Save(context.Background(), CollectionGrades, []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileAdapterRejectsEmptyBasePath(t *testing.T) {
	if _, err := NewFileAdapter("  "); err == nil {
		t.Fatalf("expected error for empty base path")
	}
}
