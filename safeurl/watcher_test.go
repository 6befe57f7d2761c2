package safeurl

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBlocklistFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestNewWatcherLoadsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.txt")
	writeBlocklistFile(t, path, "*.corp.example\n")

	bl, err := NewBlocklist()
	if err != nil {
		t.Fatalf("NewBlocklist: %v", err)
	}

	w, err := NewWatcher(path, bl, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if !bl.Match("wiki.corp.example") {
		t.Error("blocklist not loaded at watcher construction")
	}
}

func TestNewWatcherMissingFile(t *testing.T) {
	bl, err := NewBlocklist()
	if err != nil {
		t.Fatalf("NewBlocklist: %v", err)
	}
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "absent.txt"), bl, nil); err == nil {
		t.Error("NewWatcher with missing file returned nil error")
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocked.txt")
	writeBlocklistFile(t, path, "*.old.example\n")

	bl, err := NewBlocklist()
	if err != nil {
		t.Fatalf("NewBlocklist: %v", err)
	}
	w, err := NewWatcher(path, bl, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeBlocklistFile(t, path, "*.new.example\n")
	w.reload()

	if bl.Match("host.old.example") {
		t.Error("old patterns still active after reload")
	}
	if !bl.Match("host.new.example") {
		t.Error("new patterns not active after reload")
	}
	if w.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", w.Reloads())
	}
}

func TestWatcherReloadFailureKeepsPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocked.txt")
	writeBlocklistFile(t, path, "*.corp.example\n")

	bl, err := NewBlocklist()
	if err != nil {
		t.Fatalf("NewBlocklist: %v", err)
	}
	w, err := NewWatcher(path, bl, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatalf("removing blocklist file: %v", err)
	}
	w.reload()

	if !bl.Match("wiki.corp.example") {
		t.Error("patterns lost after failed reload")
	}
	if w.Reloads() != 0 {
		t.Errorf("Reloads() = %d after failed reload, want 0", w.Reloads())
	}
}
