package codebase

import (
	"errors"
	"testing"

	"github.com/dhamidi/perlls/config"
	"github.com/dhamidi/perlls/perl/parser"
)

const testURI = "file:///work/lib/Test.pm"

func newTestStore(t *testing.T, mutate func(*config.Config)) *Store {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewStore(t.TempDir(), cfg)
}

func span(startLine, startChar, endLine, endChar int) *Range {
	return &Range{
		Start: Position{Line: startLine, Character: startChar},
		End:   Position{Line: endLine, Character: endChar},
	}
}

func mustSnapshot(t *testing.T, s *Store, uri string) Snapshot {
	t.Helper()
	snap, err := s.Document(uri)
	if err != nil {
		t.Fatalf("Document(%q): %v", uri, err)
	}
	return snap
}

func TestStoreOpen(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "my $x = 42;\n"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	snap := mustSnapshot(t, s, testURI)
	if !snap.Synced || snap.Tree == nil || snap.Version != 1 || snap.LanguageID != "perl" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if got := s.Stats().TotalFullParses; got != 1 {
		t.Errorf("TotalFullParses = %d, want 1", got)
	}
}

func TestStoreOpenInvalid(t *testing.T) {
	s := newTestStore(t, nil)
	err := s.Open(testURI, "perl", 1, "my $x = ;\n")
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Open() error = %v, want a *parser.ParseError", err)
	}
	snap := mustSnapshot(t, s, testURI)
	if snap.Tree != nil || snap.Synced || snap.ParseErr == nil {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	if err := s.Change(testURI, 2, []Change{{Range: span(0, 8, 0, 8), Text: "1"}}); err != nil {
		t.Fatalf("Change() error = %v", err)
	}
	snap = mustSnapshot(t, s, testURI)
	if !snap.Synced || snap.Tree == nil || snap.Text != "my $x = 1;\n" {
		t.Errorf("unexpected snapshot after fix %+v", snap)
	}
}

func TestStoreChangesAreSequential(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "my $x = 42;\nprint $x;\n"); err != nil {
		t.Fatal(err)
	}
	changes := []Change{
		{Range: span(0, 8, 0, 10), Text: "4200"},
		{Range: span(0, 12, 0, 12), Text: " + 1"},
	}
	if err := s.Change(testURI, 2, changes); err != nil {
		t.Fatalf("Change() error = %v", err)
	}

	snap := mustSnapshot(t, s, testURI)
	if want := "my $x = 4200 + 1;\nprint $x;\n"; snap.Text != want {
		t.Errorf("Text = %q, want %q", snap.Text, want)
	}
	if !snap.Synced {
		t.Error("document not synced")
	}
	stats := s.Stats()
	if stats.TotalFullParses != 1 || stats.TotalIncrementalParses != 2 {
		t.Errorf("full=%d incremental=%d, want 1 and 2", stats.TotalFullParses, stats.TotalIncrementalParses)
	}
}

func TestStoreRecoversAfterFailedChange(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "my $x = 1;\n"); err != nil {
		t.Fatal(err)
	}
	oldTree := mustSnapshot(t, s, testURI).Tree

	err := s.Change(testURI, 2, []Change{{Range: span(0, 9, 0, 9), Text: "("}})
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Change() error = %v, want a *parser.ParseError", err)
	}
	snap := mustSnapshot(t, s, testURI)
	if snap.Synced || snap.Text != "my $x = 1(;\n" || snap.Tree != oldTree {
		t.Errorf("unexpected snapshot after failure %+v", snap)
	}

	if err := s.Change(testURI, 3, []Change{{Range: span(0, 9, 0, 10), Text: " + 2"}}); err != nil {
		t.Fatalf("Change() error = %v", err)
	}
	snap = mustSnapshot(t, s, testURI)
	if !snap.Synced || snap.ParseErr != nil || snap.Text != "my $x = 1 + 2;\n" {
		t.Errorf("unexpected snapshot after recovery %+v", snap)
	}
	if got := s.entries[testURI].doc.Text(); got != snap.Text {
		t.Errorf("document text = %q, want %q", got, snap.Text)
	}
}

func TestStoreFullTextChange(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "1;\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.Change(testURI, 2, []Change{{Text: "2;\n3;\n"}}); err != nil {
		t.Fatal(err)
	}
	snap := mustSnapshot(t, s, testURI)
	if snap.Text != "2;\n3;\n" || len(snap.Tree.Children) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if got := s.Stats().TotalFullParses; got != 2 {
		t.Errorf("TotalFullParses = %d, want 2", got)
	}
}

func TestStoreStaleAndUnknown(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 5, "1;\n"); err != nil {
		t.Fatal(err)
	}

	err := s.Change(testURI, 5, []Change{{Text: "2;\n"}})
	if !errors.Is(err, ErrStale) {
		t.Errorf("Change() with same version = %v, want ErrStale", err)
	}
	if snap := mustSnapshot(t, s, testURI); snap.Text != "1;\n" {
		t.Errorf("stale change applied: %q", snap.Text)
	}

	if err := s.Change("file:///nope.pl", 1, nil); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Change() on unknown uri = %v, want ErrNotOpen", err)
	}
	if err := s.Close(testURI); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Document(testURI); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Document() after Close = %v, want ErrNotOpen", err)
	}
	if err := s.Close(testURI); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second Close() = %v, want ErrNotOpen", err)
	}
}

func TestStoreNonIncremental(t *testing.T) {
	s := newTestStore(t, func(c *config.Config) { c.Incremental = false })
	if err := s.Open(testURI, "perl", 1, "my $x = 42;\n"); err != nil {
		t.Fatal(err)
	}
	changes := []Change{
		{Range: span(0, 8, 0, 10), Text: "43"},
		{Range: span(1, 0, 1, 0), Text: "print $x;\n"},
	}
	if err := s.Change(testURI, 2, changes); err != nil {
		t.Fatal(err)
	}
	stats := s.Stats()
	if stats.TotalIncrementalParses != 0 || stats.TotalFullParses != 2 {
		t.Errorf("full=%d incremental=%d, want 2 and 0", stats.TotalFullParses, stats.TotalIncrementalParses)
	}
	if snap := mustSnapshot(t, s, testURI); snap.Text != "my $x = 43;\nprint $x;\n" {
		t.Errorf("Text = %q", snap.Text)
	}
}

func TestStoreReplace(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "1;\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(testURI, "1;\n"); err != nil {
		t.Fatal(err)
	}
	if got := s.Stats().TotalFullParses; got != 1 {
		t.Errorf("Replace with the same text parsed again (%d full parses)", got)
	}
	if err := s.Replace(testURI, "2;\n"); err != nil {
		t.Fatal(err)
	}
	if snap := mustSnapshot(t, s, testURI); snap.Text != "2;\n" {
		t.Errorf("Text = %q", snap.Text)
	}
}

func TestStoreSetCacheMaxSize(t *testing.T) {
	s := newTestStore(t, nil)
	if err := s.Open(testURI, "perl", 1, "my $x = 42;\nmy $y = 100;\n"); err != nil {
		t.Fatal(err)
	}
	s.SetCacheMaxSize(1)
	if got := s.entries[testURI].doc.Cache().ContentLen(); got > 1 {
		t.Errorf("open document cache holds %d entries, want at most 1", got)
	}

	other := "file:///work/other.pl"
	if err := s.Open(other, "perl", 1, "my $z = 1;\n"); err != nil {
		t.Fatal(err)
	}
	if got := s.entries[other].doc.Cache().MaxSize(); got != 1 {
		t.Errorf("new document cache bound = %d, want 1", got)
	}
}
