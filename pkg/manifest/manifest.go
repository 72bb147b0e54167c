// Package manifest parses a directory of YAML files into an addressable
// tree of Nodes: field keys become Nodes qualified as
// "file.segment.segment...", _state/_store/_load blocks inherit shallowly
// from ancestor to descendant, and every placeholder path inside those
// blocks is qualified to its absolute form once, at parse time.
package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/logger"
	"github.com/declarative-state/state-engine/pkg/value"
)

// Manifest is the parsed view of a manifest directory. Files are
// discovered eagerly at construction but parsed lazily: Load(stem) is
// idempotent and is how a duplicate-stem collision actually surfaces,
// matching the "first operation that touches the file" semantics a caller
// observes when two files share a stem across .yml/.yaml.
type Manifest struct {
	dir string
	log logger.Logger

	mu          sync.Mutex
	stemPaths   map[string][]string
	loadResults map[string]error

	nodes []nodeRecord
	index map[string]NodeIndex
}

// New scans dir (recursively) for *.yml/*.yaml files and groups them by
// stem, without parsing any of them yet.
func New(dir string, log logger.Logger) (*Manifest, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.WithPrefix("manifest")
	m := &Manifest{
		dir:         dir,
		log:         log,
		stemPaths:   make(map[string][]string),
		loadResults: make(map[string]error),
		index:       make(map[string]NodeIndex),
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		m.stemPaths[stem] = append(m.stemPaths[stem], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logger.Fields{"dir": dir}).Debug("discovered %d file stem(s)", len(m.stemPaths))
	return m, nil
}

// Load parses the file with the given stem, if it hasn't been already.
// A stem with no matching file is not an error: Find simply reports no
// node for any path under it, the same as a path that doesn't exist
// within a file that does.
func (m *Manifest) Load(stem string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, attempted := m.loadResults[stem]; attempted {
		return err
	}

	paths := m.stemPaths[stem]
	if len(paths) == 0 {
		m.loadResults[stem] = nil
		return nil
	}
	if len(paths) > 1 {
		err := stateerrors.NewManifestError(stateerrors.DuplicateStem, stem, "found at "+strings.Join(paths, ", "), nil)
		m.loadResults[stem] = err
		return err
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		wrapped := stateerrors.NewManifestError(stateerrors.YamlParseError, stem, err.Error(), err)
		m.loadResults[stem] = wrapped
		return wrapped
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		wrapped := stateerrors.NewManifestError(stateerrors.YamlParseError, stem, err.Error(), err)
		m.loadResults[stem] = wrapped
		return wrapped
	}

	nodes, idx, err := parseDocument(stem, &doc)
	if err != nil {
		m.loadResults[stem] = err
		return err
	}

	base := NodeIndex(len(m.nodes))
	for path, localIdx := range idx {
		m.index[path] = base + localIdx
	}
	for i := range nodes {
		if nodes[i].hasParent {
			nodes[i].parent += base
		}
		for j := range nodes[i].children {
			nodes[i].children[j].Index += base
		}
	}
	m.nodes = append(m.nodes, nodes...)

	m.log.WithFields(logger.Fields{"stem": stem, "nodes": len(nodes)}).Debug("loaded")
	m.loadResults[stem] = nil
	return nil
}

// SplitPath divides a fully qualified "file.segment..." path into its file
// stem and the remaining dotted subpath.
func SplitPath(qualified string) (file, subpath string) {
	i := strings.IndexByte(qualified, '.')
	if i < 0 {
		return qualified, ""
	}
	return qualified[:i], qualified[i+1:]
}

// Find returns the node index for a fully qualified path. A path that
// doesn't exist — whether its file was never loaded, doesn't exist, or
// simply lacks that field — is not an error; ok is just false.
func (m *Manifest) Find(qualified string) (NodeIndex, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.index[qualified]
	return idx, ok
}

// Meta returns a node's effective, already-qualified _state/_store/_load
// blocks. Any of the three may be nil if that node has no such block in
// its inheritance chain.
func (m *Manifest) Meta(idx NodeIndex) (state, store, load MetaBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nodes[idx]
	return n.state, n.store, n.load
}

// Leaf returns the node's manifest-authored default value.
func (m *Manifest) Leaf(idx NodeIndex) value.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[idx].leaf
}

// Children returns a node's field children in document order. Empty for a
// leaf with no nested fields.
func (m *Manifest) Children(idx NodeIndex) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.nodes[idx].children...)
}

// Parent returns the owning node, if idx is not a top-level field of its
// file.
func (m *Manifest) Parent(idx NodeIndex) (NodeIndex, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.nodes[idx]
	return n.parent, n.hasParent
}

// Path returns a node's fully qualified path.
func (m *Manifest) Path(idx NodeIndex) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[idx].path
}

// Segment returns a node's last path component (its own field key).
func (m *Manifest) Segment(idx NodeIndex) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[idx].segment
}

// NumNodes reports the pool size: the number of nodes across every file
// loaded so far.
func (m *Manifest) NumNodes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}
