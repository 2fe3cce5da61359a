package codebase

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dhamidi/perlls/perl/parser"
	"golang.org/x/sync/errgroup"
)

// ScanResult is the outcome of parsing one closed workspace file.
type ScanResult struct {
	Path  string
	Nodes int
	Err   error
}

// matcher selects workspace files with doublestar patterns matched against
// slash-separated paths relative to the workspace root.
type matcher struct {
	include []string
	exclude []string
}

func (m matcher) matchFile(rel string) bool {
	for _, pattern := range m.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range m.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// skipDir reports whether an exclude pattern covers everything below rel.
func (m matcher) skipDir(rel string) bool {
	for _, pattern := range m.exclude {
		dir, ok := strings.CutSuffix(pattern, "/**")
		if !ok {
			continue
		}
		if match, _ := doublestar.Match(dir, rel); match {
			return true
		}
	}
	return false
}

// workspaceFiles lists the files under the root selected by the
// configured patterns.
func (s *Store) workspaceFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.rootDir, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if s.match.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.match.matchFile(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// ScanAll parses every closed workspace file in parallel and records the
// results. Files that cannot be read or parsed are recorded, not
// returned; the error is only for cancellation or a failed walk.
func (s *Store) ScanAll(ctx context.Context) error {
	paths, err := s.workspaceFiles(ctx)
	if err != nil {
		return err
	}
	jobs := s.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range paths {
		if s.IsOpen(pathToURI(path)) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.ScanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Infof("scanned %d files under %s", len(paths), s.rootDir)
	return nil
}

// ScanFile parses the file at path and records the result.
func (s *Store) ScanFile(path string) ScanResult {
	result := ScanResult{Path: path}
	content, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
	} else if root, err := parser.Parse(string(content)); err != nil {
		result.Err = err
	} else {
		result.Nodes = root.Count()
	}
	if result.Err != nil {
		log.Debugf("scan %s: %s", path, result.Err)
	}

	s.mu.Lock()
	s.scanned[path] = result
	s.mu.Unlock()
	return result
}

func (s *Store) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scanned, path)
}

// ScanResults returns the recorded scan results ordered by path.
func (s *Store) ScanResults() []ScanResult {
	s.mu.RLock()
	results := make([]ScanResult, 0, len(s.scanned))
	for _, r := range s.scanned {
		results = append(results, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(results, func(a, b ScanResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return results
}
