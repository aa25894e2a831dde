package vdir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestClassify_Directory verifies that an existing directory is served
// directly with native path joining and no cache.
func TestClassify_Directory(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "hello.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	vd, err := New(tmpDir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer vd.Close()

	if _, ok := vd.backend.(*localBackend); !ok {
		t.Fatalf("Expected local backend, got %T", vd.backend)
	}

	relpath, ok := vd.Find(ctx, "hello.txt")
	if !ok {
		t.Fatal("Find did not locate hello.txt")
	}
	if relpath != "hello.txt" {
		t.Errorf("Expected relpath 'hello.txt', got %q", relpath)
	}

	local, err := vd.Materialize(ctx, "hello.txt")
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if local != filepath.Join(tmpDir, "hello.txt") {
		t.Errorf("Expected identity resolution, got %q", local)
	}

	if vd.CachePath() != "" {
		t.Errorf("Local backend allocated a cache: %q", vd.CachePath())
	}
}

func TestClassify_MissingFile(t *testing.T) {
	ctx := context.Background()

	vd, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer vd.Close()

	if _, ok := vd.Find(ctx, "nope.txt"); ok {
		t.Error("Find located a file that does not exist")
	}

	if _, err := vd.Materialize(ctx, "nope.txt"); !errors.Is(err, ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestClassify_RejectsS3(t *testing.T) {
	for _, source := range []string{"s3://bucket/prefix", "S3://bucket"} {
		_, err := New(source)
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("Expected ErrUnsupportedScheme for %q, got %v", source, err)
		}
		// The rejection is still a classification failure.
		if !errors.Is(err, ErrInvalidSource) {
			t.Errorf("Expected ErrInvalidSource for %q, got %v", source, err)
		}
	}
}

func TestClassify_InvalidSource(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrInvalidSource) {
		t.Errorf("Expected ErrInvalidSource, got %v", err)
	}
}

// TestClosedDirectory verifies a closed directory answers neither
// existence probes nor materialization.
func TestClosedDirectory(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "hello.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	vd, err := New(tmpDir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := vd.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := vd.Find(ctx, "hello.txt"); ok {
		t.Error("Find succeeded on a closed directory")
	}
	if _, err := vd.Materialize(ctx, "hello.txt"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestClassify_URL(t *testing.T) {
	vd, err := New("https://example.com/data")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer vd.Close()

	if _, ok := vd.backend.(*urlBackend); !ok {
		t.Fatalf("Expected url backend, got %T", vd.backend)
	}

	if got := vd.Join("a", "b", "c.txt"); got != "a/b/c.txt" {
		t.Errorf("Expected forward-slash joining, got %q", got)
	}
}

func TestClassify_Archive(t *testing.T) {
	tmpDir := t.TempDir()

	cases := []struct {
		source string
		prefix string
	}{
		{filepath.Join(tmpDir, "data.tar"), ""},
		{filepath.Join(tmpDir, "data.tar.gz"), ""},
		{filepath.Join(tmpDir, "data.tar.bz2"), ""},
		{filepath.Join(tmpDir, "data.tar.lzma"), ""},
		{filepath.Join(tmpDir, "data.tar.gz") + ":subject10", "subject10"},
		{filepath.Join(tmpDir, "data.tar") + ":sub/dir/", "sub/dir"},
	}

	for _, tc := range cases {
		vd, err := New(tc.source)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tc.source, err)
		}

		ab, ok := vd.backend.(*archiveBackend)
		if !ok {
			t.Fatalf("Expected archive backend for %q, got %T", tc.source, vd.backend)
		}
		if ab.prefix != tc.prefix {
			t.Errorf("Expected prefix %q for %q, got %q", tc.prefix, tc.source, ab.prefix)
		}

		vd.Close()
	}
}
