// Package filter implements the exclusion set applied during a replication
// run: an ordered list of glob patterns matched against candidate paths.
package filter

import (
	"path/filepath"
	"runtime"
)

// Set holds the compiled exclusion patterns for one replication run.
// A path is excluded when any pattern matches its path relative to the
// source root, its absolute path, or any single path component. Matching a
// directory excludes the entire subtree beneath it.
type Set struct {
	rules []*compiledPattern
	fold  bool
}

// FoldCaseDefault reports whether pattern matching should be
// case-insensitive on this platform's filesystems.
func FoldCaseDefault() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// New compiles the given patterns into a Set. foldCase selects
// case-insensitive matching.
func New(patterns []string, foldCase bool) (*Set, error) {
	s := &Set{fold: foldCase}
	for _, p := range patterns {
		if err := s.Add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add compiles one pattern and appends it to the set.
func (s *Set) Add(pattern string) error {
	cp, err := compilePattern(pattern, s.fold)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, cp)
	return nil
}

// Empty reports whether the set has no patterns.
func (s *Set) Empty() bool {
	return len(s.rules) == 0
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.rules)
}

// Excluded reports whether the entry should be dropped from the walk.
// absPath is the absolute source path, relPath the path relative to the
// source root. isDir enables the additional prune check so that patterns
// like "*/cache/*" also stop descent into the cache directory itself.
func (s *Set) Excluded(absPath, relPath string, isDir bool) bool {
	if len(s.rules) == 0 {
		return false
	}

	abs := filepath.ToSlash(absPath)
	rel := filepath.ToSlash(relPath)

	for _, rule := range s.rules {
		if rule.match(rel) || rule.match(abs) {
			return true
		}
		if isDir && (rule.prune(rel) || rule.prune(abs)) {
			return true
		}
	}
	return false
}
