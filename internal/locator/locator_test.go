package locator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("Resolve(%q) = %q, want the absolute path back", path, got)
	}
}

func TestResolveMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("Resolve of a missing file succeeded")
	}
}

func TestResolveDirectory(t *testing.T) {
	t.Parallel()

	if _, err := Resolve(t.TempDir()); err == nil {
		t.Error("Resolve of a directory succeeded")
	}
}

func TestResolveEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Resolve(""); err == nil {
		t.Error("Resolve of empty input succeeded")
	}
}

func TestResolveRemoteURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"https://example.com/stream.m3u8",
		"rtsp://camera.local/stream",
		"srt://host:6000",
	} {
		got, err := Resolve(raw)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", raw, err)
			continue
		}
		if got != raw {
			t.Errorf("Resolve(%q) = %q, want passthrough", raw, got)
		}
	}
}

func TestResolveFileURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve("file://" + path)
	if err != nil {
		t.Fatalf("Resolve(file URL) error: %v", err)
	}
	if got != path {
		t.Errorf("Resolve(file URL) = %q, want %q", got, path)
	}
}
