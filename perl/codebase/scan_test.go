package codebase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhamidi/perlls/config"
	"github.com/dhamidi/perlls/perl/parser"
	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(t *testing.T, root string, results []ScanResult) []string {
	t.Helper()
	var paths []string
	for _, r := range results {
		rel, err := filepath.Rel(root, r.Path)
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths
}

func TestMatcher(t *testing.T) {
	cfg := config.Default()
	m := matcher{include: cfg.Workspace.Include, exclude: cfg.Workspace.Exclude}

	files := []struct {
		path string
		want bool
	}{
		{"script.pl", true},
		{"lib/Foo/Bar.pm", true},
		{"t/basic.t", true},
		{"README.md", false},
		{"blib/lib/Foo.pm", false},
		{"local/lib/perl5/Dep.pm", false},
	}
	for _, tt := range files {
		t.Run(tt.path, func(t *testing.T) {
			if got := m.matchFile(tt.path); got != tt.want {
				t.Errorf("matchFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	dirs := []struct {
		path string
		want bool
	}{
		{".git", true},
		{"blib", true},
		{"local", true},
		{"lib", false},
		{"lib/local", false},
	}
	for _, tt := range dirs {
		if got := m.skipDir(tt.path); got != tt.want {
			t.Errorf("skipDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"lib/Good.pm":     "package Good;\nsub answer { return 42; }\n1;\n",
		"t/broken.t":      "my $x = ;\n",
		"script.pl":       "print 1;\n",
		"blib/lib/X.pm":   "this is not perl (\n",
		".git/hooks/a.pl": "1;\n",
		"README.md":       "# readme\n",
	})

	s := NewStore(root, config.Default())
	if err := s.ScanAll(context.Background()); err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}

	results := s.ScanResults()
	want := []string{"lib/Good.pm", "script.pl", "t/broken.t"}
	if diff := cmp.Diff(want, relPaths(t, root, results)); diff != "" {
		t.Fatalf("scanned paths mismatch (-want +got):\n%s", diff)
	}
	for _, r := range results[:2] {
		if r.Err != nil || r.Nodes == 0 {
			t.Errorf("%s: nodes=%d err=%v", r.Path, r.Nodes, r.Err)
		}
	}
	var perr *parser.ParseError
	if !errors.As(results[2].Err, &perr) || perr.Offset != 8 {
		t.Errorf("broken.t error = %v, want a parse error at offset 8", results[2].Err)
	}
}

func TestScanAllSkipsOpenDocuments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.pl": "1;\n",
		"b.pl": "2;\n",
	})

	s := NewStore(root, config.Default())
	if err := s.Open(pathToURI(filepath.Join(root, "a.pl")), "perl", 1, "1;\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.ScanAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b.pl"}, relPaths(t, root, s.ScanResults())); diff != "" {
		t.Errorf("scanned paths mismatch (-want +got):\n%s", diff)
	}

	s.RemoveFile(filepath.Join(root, "b.pl"))
	if got := len(s.ScanResults()); got != 0 {
		t.Errorf("%d results after RemoveFile, want 0", got)
	}
}

func TestScanAllCanceled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.pl": "1;\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore(root, config.Default())
	if err := s.ScanAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ScanAll() error = %v, want context.Canceled", err)
	}
}
