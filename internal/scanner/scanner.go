// Package scanner expands command-line paths into the Python files to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/preciselake/preciselake/pkg/config"
	"github.com/preciselake/preciselake/pkg/parser"
)

// Scanner finds Python source files under directories.
type Scanner struct {
	config *config.Config
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// Expand resolves paths into files. Directories are scanned; anything else,
// including a path that does not exist, is passed through unchanged so the
// caller reports it. Order follows the arguments and duplicates are dropped.
func (s *Scanner) Expand(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

// matcher applies patterns to paths relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

func (m matcher) match(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return m.m.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// findGitRoot walks up from start to the directory holding .git.
// Returns "" outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// matchers builds the config matcher (relative to root) and, when enabled,
// the .gitignore matcher (relative to the repository root).
func (s *Scanner) matchers(root string) []matcher {
	var patterns []gitignore.Pattern
	for _, p := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	out := []matcher{{base: root, m: gitignore.NewMatcher(patterns)}}

	if !s.config.Exclude.Gitignore {
		return out
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return out
	}
	ignored, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(ignored) == 0 {
		return out
	}
	return append(out, matcher{base: gitRoot, m: gitignore.NewMatcher(ignored)})
}

// ScanDir returns the Python files under root in lexical order.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	ms := s.matchers(absRoot)
	excluded := func(path string, isDir bool) bool {
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
			abs = filepath.Join(resolved, filepath.Base(abs))
		}
		for _, m := range ms {
			if m.match(abs, isDir) {
				return true
			}
		}
		return false
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if excluded(path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(path, false) {
			return nil
		}
		if parser.IsPython(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, walkErr
}

// isWithinRoot reports whether path is root or lies below it.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	// The separator keeps "/root2" from matching "/root".
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
