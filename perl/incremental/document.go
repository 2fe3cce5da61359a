package incremental

import (
	"time"

	"github.com/dhamidi/perlls/perl/parser"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("perlls.incremental")

// ParseFunc turns source text into a tree or fails with an error. It must
// return a tree it does not retain, since reused subtrees are spliced into
// it in place.
type ParseFunc func(src string) (*parser.Node, error)

type Option func(*Document)

// WithParser replaces the parser used for full and incremental parses.
func WithParser(parse ParseFunc) Option {
	return func(d *Document) {
		d.parse = parse
	}
}

// WithCacheMaxSize bounds the content index of the subtree cache.
func WithCacheMaxSize(n int) Option {
	return func(d *Document) {
		d.cacheMaxSize = n
	}
}

// Document is a source text together with its syntax tree, kept in sync
// across edits. Updates are atomic: an edit whose result does not parse
// leaves the document exactly as it was.
//
// A Document is not safe for concurrent use.
type Document struct {
	source       string
	root         *parser.Node
	version      int
	cache        *SubtreeCache
	cacheMaxSize int
	metrics      Metrics
	parse        ParseFunc
}

// New parses source and returns a document at version 0.
func New(source string, opts ...Option) (*Document, error) {
	d := &Document{
		parse:        parser.Parse,
		cacheMaxSize: DefaultCacheMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	start := time.Now()
	root, err := d.parse(source)
	if err != nil {
		return nil, err
	}
	d.source = source
	d.root = root
	d.cache = NewSubtreeCache(d.cacheMaxSize)
	d.cache.Rebuild(root)
	d.metrics = Metrics{
		NodesReparsed:   root.Count(),
		LastParseTimeMs: elapsedMs(start),
	}
	log.Debugf("parsed %d bytes into %d nodes", len(source), d.metrics.NodesReparsed)
	return d, nil
}

// ApplyEdit applies a single edit and brings the tree up to date, through
// the single-token fast path when the edit allows it and by reparsing with
// subtree reuse otherwise.
func (d *Document) ApplyEdit(edit Edit) error {
	start := time.Now()
	d.metrics = Metrics{}

	edit = edit.clamp(len(d.source))
	newSource, ok := edit.Apply(d.source)
	if !ok {
		edit = Edit{StartByte: edit.StartByte, OldEndByte: edit.StartByte}
	}

	var m Metrics
	root := tryFastPath(d.root, newSource, edit)
	if root != nil {
		m.FastPath = true
		m.NodesReparsed = 1
		m.NodesReused = root.Count() - 1
	} else {
		candidates := discoverSingle(d.cache, edit, &m)
		fresh, err := d.parse(newSource)
		if err != nil {
			log.Debugf("edit %v does not parse: %s", edit, err)
			return err
		}
		root = d.splice(fresh, candidates, &m)
	}

	d.commit(newSource, root, m, start)
	log.Debugf("applied edit %v at version %d: %v", edit, d.version, d.metrics)
	return nil
}

// ApplyEdits applies a batch of edits whose offsets all refer to the
// current text, then reparses once. Subtrees untouched by any edit are
// reused with their ranges unchanged, so only those ahead of every
// length-changing edit can be spliced back.
func (d *Document) ApplyEdits(edits *EditSet) error {
	start := time.Now()
	d.metrics = Metrics{}

	sorted := edits.Sorted()
	ranges := make([]Edit, 0, len(sorted))
	newSource := d.source
	for _, e := range sorted {
		ranges = append(ranges, e.clamp(len(d.source)))
		newSource, _ = e.Apply(newSource)
	}

	var m Metrics
	candidates := discoverBatch(d.cache, ranges, &m)
	fresh, err := d.parse(newSource)
	if err != nil {
		log.Debugf("batch of %d edits does not parse: %s", len(sorted), err)
		return err
	}
	root := d.splice(fresh, candidates, &m)

	d.commit(newSource, root, m, start)
	log.Debugf("applied %d edits at version %d: %v", len(sorted), d.version, d.metrics)
	return nil
}

func (d *Document) splice(fresh *parser.Node, candidates []reusable, m *Metrics) *parser.Node {
	root, matched := splice(fresh, candidates)
	m.NodesReparsed = max(root.Count()-m.NodesReused, 0)
	log.Debugf("spliced %d of %d reusable subtrees", matched, len(candidates))
	return root
}

func (d *Document) commit(source string, root *parser.Node, m Metrics, start time.Time) {
	d.source = source
	d.root = root
	d.version++
	d.cache.Rebuild(root)
	m.LastParseTimeMs = elapsedMs(start)
	d.metrics = m
}

// Tree returns the current syntax tree. It must not be modified.
func (d *Document) Tree() *parser.Node {
	return d.root
}

func (d *Document) Text() string {
	return d.source
}

// Version counts the successful updates since New.
func (d *Document) Version() int {
	return d.version
}

// Metrics describes the last successful update, or is zero when the last
// update failed.
func (d *Document) Metrics() Metrics {
	return d.metrics
}

// SetCacheMaxSize changes the bound of the cache's content index.
func (d *Document) SetCacheMaxSize(n int) {
	d.cacheMaxSize = n
	d.cache.SetMaxSize(n)
}

// Cache exposes the subtree cache for inspection.
func (d *Document) Cache() *SubtreeCache {
	return d.cache
}
