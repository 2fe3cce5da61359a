package codebase

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dhamidi/perlls/config"
	"github.com/dhamidi/perlls/perl/incremental"
	"github.com/dhamidi/perlls/perl/parser"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("perlls.codebase")

var (
	ErrNotOpen = errors.New("document not open")
	ErrStale   = errors.New("stale document version")
)

// Change is one content change from the client. A nil Range replaces the
// whole text.
type Change struct {
	Range *Range
	Text  string
}

// Snapshot is a consistent view of an open document.
type Snapshot struct {
	URI        string
	LanguageID string
	Version    int
	// Text is the client's text. When Synced is false the last change did
	// not parse and Tree still describes an earlier text.
	Text     string
	Tree     *parser.Node
	Synced   bool
	Metrics  incremental.Metrics
	ParseErr error
}

type entry struct {
	mu         sync.Mutex
	uri        string
	languageID string
	version    int
	text       string
	doc        *incremental.Document
	synced     bool
	parseErr   error
}

// Store holds the open documents of a workspace together with the parse
// results of the closed files found by ScanAll. Updates to one document
// are serialized; different documents update independently.
type Store struct {
	rootDir      string
	incremental  bool
	perfLog      bool
	targetMs     float64
	jobs         int
	match        matcher
	cacheMaxSize atomic.Int64

	mu      sync.RWMutex
	entries map[string]*entry
	scanned map[string]ScanResult

	metricsMu sync.Mutex
	metrics   ServerMetrics
}

func NewStore(rootDir string, cfg *config.Config) *Store {
	s := &Store{
		rootDir:     rootDir,
		incremental: cfg.Incremental,
		perfLog:     cfg.Performance.Log,
		targetMs:    cfg.Performance.TargetParseTimeMs,
		jobs:        cfg.Workspace.Jobs,
		match:       matcher{include: cfg.Workspace.Include, exclude: cfg.Workspace.Exclude},
		entries:     make(map[string]*entry),
		scanned:     make(map[string]ScanResult),
	}
	s.cacheMaxSize.Store(int64(cfg.Cache.MaxSize))
	return s
}

func (s *Store) RootDir() string {
	return s.rootDir
}

// Open parses text and starts tracking uri. A parse error is returned but
// the document stays open so later changes can fix it.
func (s *Store) Open(uri, languageID string, version int, text string) error {
	e := &entry{uri: uri, languageID: languageID, version: version, text: text}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	s.entries[uri] = e
	s.mu.Unlock()

	s.parseFull(e)
	return e.parseErr
}

// Change applies changes in order, each relative to the text left by the
// previous one. The returned error is the parse error of the final text,
// ErrNotOpen or ErrStale.
func (s *Store) Change(uri string, version int, changes []Change) error {
	e, err := s.lookup(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if version <= e.version {
		return fmt.Errorf("%w: %s version %d, have %d", ErrStale, uri, version, e.version)
	}
	e.version = version

	needFull := false
	for _, c := range changes {
		if c.Range == nil {
			e.text = c.Text
			needFull = !s.incremental
			if s.incremental {
				s.parseFull(e)
			}
			continue
		}
		start, end := NewPositionConverter(e.text).ByteRange(*c.Range)
		edit := incremental.NewEdit(start, end, c.Text)
		e.text, _ = edit.Apply(e.text)
		if s.incremental && e.doc != nil {
			s.applyIncremental(e, edit)
		} else {
			needFull = true
		}
	}
	if needFull {
		s.parseFull(e)
	}
	return e.parseErr
}

// Replace swaps in a new full text, as when a file is saved.
func (s *Store) Replace(uri, text string) error {
	e, err := s.lookup(uri)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.synced && e.text == text {
		return nil
	}
	e.text = text
	s.parseFull(e)
	return e.parseErr
}

func (s *Store) Close(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[uri]; !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	delete(s.entries, uri)
	return nil
}

func (s *Store) IsOpen(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[uri]
	return ok
}

// Document returns a snapshot of the open document at uri.
func (s *Store) Document(uri string) (Snapshot, error) {
	e, err := s.lookup(uri)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		URI:        e.uri,
		LanguageID: e.languageID,
		Version:    e.version,
		Text:       e.text,
		Synced:     e.synced,
		ParseErr:   e.parseErr,
	}
	if e.doc != nil {
		snap.Tree = e.doc.Tree()
		snap.Metrics = e.doc.Metrics()
	}
	return snap, nil
}

// Stats returns the aggregate parse metrics.
func (s *Store) Stats() ServerMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}

// SetCacheMaxSize applies to every open document and to those opened
// later.
func (s *Store) SetCacheMaxSize(n int) {
	s.cacheMaxSize.Store(int64(n))

	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.doc != nil {
			e.doc.SetCacheMaxSize(n)
		}
		e.mu.Unlock()
	}
}

func (s *Store) lookup(uri string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	return e, nil
}

// parseFull replaces the entry's document with a fresh parse of its text.
// On failure the previous document is kept so that a later edit can be
// applied to it as a diff.
func (s *Store) parseFull(e *entry) {
	doc, err := incremental.New(e.text, incremental.WithCacheMaxSize(int(s.cacheMaxSize.Load())))
	if err != nil {
		s.failed(e, err)
		return
	}
	e.doc = doc
	e.synced = true
	e.parseErr = nil
	s.record(e.uri, doc.Metrics(), true)
}

// applyIncremental brings the entry's document up to date with its text.
// edit is the change just applied to the text; when the document was
// already behind, the whole difference is applied as one batch instead.
func (s *Store) applyIncremental(e *entry, edit incremental.Edit) {
	var err error
	if e.synced {
		err = e.doc.ApplyEdit(edit)
	} else {
		edits := incremental.EditsFromDiff(e.doc.Text(), e.text)
		err = e.doc.ApplyEdits(incremental.NewEditSet(edits...))
	}
	if err != nil {
		s.failed(e, err)
		return
	}
	e.synced = true
	e.parseErr = nil
	s.record(e.uri, e.doc.Metrics(), false)
}

func (s *Store) failed(e *entry, err error) {
	e.synced = false
	e.parseErr = err
	log.Debugf("%s version %d does not parse: %s", e.uri, e.version, err)
}

func (s *Store) record(uri string, m incremental.Metrics, full bool) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics.Record(m, full)

	if !s.perfLog {
		return
	}
	kind := "incremental"
	if full {
		kind = "full"
	}
	log.Infof("%s parse of %s: %.2fms (%d reused, %d reparsed)", kind, uri, m.LastParseTimeMs, m.NodesReused, m.NodesReparsed)
	if m.LastParseTimeMs > s.targetMs {
		log.Warningf("parse time exceeded target (%.2fms > %.2fms)", m.LastParseTimeMs, s.targetMs)
	}
	if s.metrics.TotalParses()%summaryInterval == 0 {
		log.Noticef("performance summary: %v", s.metrics)
	}
}
