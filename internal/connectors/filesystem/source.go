// Package filesystem finds uploadable documents in a local directory tree
// and reports new or changed files as they appear.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DefaultInclude matches every file under the root.
const DefaultInclude = "**/*"

// DefaultSettle is how long a file must stay quiet before Watch reports it.
const DefaultSettle = 500 * time.Millisecond

// Options configures a Source.
type Options struct {
	// Include globs are matched against slash-separated paths relative to
	// the root. Empty means DefaultInclude.
	Include []string

	// Exclude globs win over Include.
	Exclude []string

	// Settle overrides DefaultSettle.
	Settle time.Duration
}

// Source is a directory of documents.
type Source struct {
	root    string
	include []string
	exclude []string
	settle  time.Duration
}

// New validates root and the glob patterns.
func New(root string, opts Options) (*Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	include := opts.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}
	for _, p := range append(append([]string{}, include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, p)
		}
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	return &Source{
		root:    abs,
		include: include,
		exclude: opts.Exclude,
		settle:  settle,
	}, nil
}

// Root returns the absolute root directory.
func (s *Source) Root() string {
	return s.root
}

// Match reports whether path is a supported, non-hidden document selected
// by the include and exclude patterns. Path may be absolute or relative to
// the root.
func (s *Source) Match(path string) bool {
	rel, ok := s.rel(path)
	if !ok || rel == "." || isHidden(rel) {
		return false
	}
	if !domain.ParseMediaType(filepath.Ext(rel)).IsSupported() {
		return false
	}
	return matchAny(s.include, rel) && !matchAny(s.exclude, rel)
}

// Scan walks the tree and returns matching files as sorted absolute paths.
func (s *Source) Scan(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != s.root && s.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.Match(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// skipDir is true for hidden or excluded directories.
func (s *Source) skipDir(path string) bool {
	rel, ok := s.rel(path)
	if !ok {
		return true
	}
	return isHidden(rel) || matchAny(s.exclude, rel)
}

func (s *Source) rel(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
