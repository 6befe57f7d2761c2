package safeurl

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Blocklist holds additional blocked hostname patterns in doublestar glob
// syntax (e.g. "*.corp.example"). Patterns come from two sources, a static
// set (SetPatterns) and a file-backed set (LoadFile), and Match consults
// both. It is safe for concurrent use, so a Watcher can swap the file set
// while validators keep matching.
type Blocklist struct {
	mu       sync.RWMutex
	static   []string
	fromFile []string
}

// NewBlocklist creates a Blocklist from the given static patterns.
func NewBlocklist(patterns ...string) (*Blocklist, error) {
	b := &Blocklist{}
	if err := b.SetPatterns(patterns); err != nil {
		return nil, err
	}
	return b, nil
}

// SetPatterns replaces the static pattern set atomically. All patterns
// must be valid doublestar globs or the set is left unchanged.
func (b *Blocklist) SetPatterns(patterns []string) error {
	if err := validatePatterns(patterns); err != nil {
		return err
	}

	b.mu.Lock()
	b.static = append([]string(nil), patterns...)
	b.mu.Unlock()
	return nil
}

// Patterns returns a copy of the combined pattern set, static first.
func (b *Blocklist) Patterns() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.static)+len(b.fromFile))
	out = append(out, b.static...)
	out = append(out, b.fromFile...)
	return out
}

// Match reports whether host matches any blocked pattern. The host is
// expected lowercase; the validator lowercases before matching.
func (b *Blocklist) Match(host string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, p := range b.static {
		if ok, _ := doublestar.Match(p, host); ok {
			return true
		}
	}
	for _, p := range b.fromFile {
		if ok, _ := doublestar.Match(p, host); ok {
			return true
		}
	}
	return false
}

// LoadFile replaces the file-backed pattern set with the contents of path:
// one pattern per line, blank lines and #-comments skipped. The static set
// is untouched, so config-sourced patterns survive reloads.
func (b *Blocklist) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := validatePatterns(patterns); err != nil {
		return err
	}

	b.mu.Lock()
	b.fromFile = patterns
	b.mu.Unlock()
	return nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid blocklist pattern %q", p)
		}
	}
	return nil
}
