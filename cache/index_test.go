package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIndex_RecordAndLookup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	defer ix.Close()

	local := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(local, []byte("cached"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entry := IndexEntry{
		Source:    "https://example.com/data",
		Relpath:   "file.txt",
		LocalPath: local,
		Size:      6,
	}
	if err := ix.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, ok, err := ix.Lookup(ctx, entry.Source, entry.Relpath)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("Lookup did not find the recorded entry")
	}
	if got != local {
		t.Errorf("Expected %q, got %q", local, got)
	}

	// Unknown keys are absent without error.
	if _, ok, err := ix.Lookup(ctx, entry.Source, "other.txt"); err != nil || ok {
		t.Errorf("Expected miss, got ok=%v err=%v", ok, err)
	}
}

// TestIndex_StaleEntryDropped verifies that an entry whose backing file
// disappeared is reported absent and forgotten.
func TestIndex_StaleEntryDropped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	defer ix.Close()

	entry := IndexEntry{
		Source:    "archive.tar.gz",
		Relpath:   "gone.txt",
		LocalPath: filepath.Join(dir, "gone.txt"),
	}
	if err := ix.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if _, ok, err := ix.Lookup(ctx, entry.Source, entry.Relpath); err != nil || ok {
		t.Errorf("Expected stale entry to be absent, got ok=%v err=%v", ok, err)
	}
	if ix.Len() != 0 {
		t.Errorf("Expected stale entry to be forgotten, %d entries remain", ix.Len())
	}
}

// TestIndex_Persistence verifies entries survive a close/reopen cycle.
func TestIndex_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	local := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(local, []byte("cached"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}

	entry := IndexEntry{Source: "src", Relpath: "file.txt", LocalPath: local, Size: 6}
	if err := ix.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ix2, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer ix2.Close()

	got, ok, err := ix2.Lookup(ctx, "src", "file.txt")
	if err != nil || !ok {
		t.Fatalf("Lookup after reopen failed: ok=%v err=%v", ok, err)
	}
	if got != local {
		t.Errorf("Expected %q, got %q", local, got)
	}
}

func TestIndex_Forget(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	local := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(local, []byte("cached"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	ix, err := OpenIndex(dir)
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	defer ix.Close()

	entry := IndexEntry{Source: "src", Relpath: "file.txt", LocalPath: local}
	if err := ix.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := ix.Forget(ctx, "src", "file.txt"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}

	if _, ok, _ := ix.Lookup(ctx, "src", "file.txt"); ok {
		t.Error("Lookup found a forgotten entry")
	}
}
