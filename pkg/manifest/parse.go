package manifest

import (
	"strings"

	"gopkg.in/yaml.v3"

	stateerrors "github.com/declarative-state/state-engine/pkg/errors"
	"github.com/declarative-state/state-engine/pkg/pathqual"
	"github.com/declarative-state/state-engine/pkg/placeholder"
	"github.com/declarative-state/state-engine/pkg/value"
)

// metaState, metaStore and metaLoad are the only underscore-prefixed keys this package gives
// meaning to. Any other key starting with "_" is simply excluded from the
// field tree without error — a manifest author's private annotation.
const (
	metaState = "_state"
	metaStore = "_store"
	metaLoad  = "_load"
)

// parser accumulates nodeRecords for a single file as it walks the YAML
// document tree.
type parser struct {
	file  string
	nodes []nodeRecord
	index map[string]NodeIndex
}

func newParser(file string) *parser {
	return &parser{file: file, index: make(map[string]NodeIndex)}
}

// parseDocument parses one manifest file's root mapping and returns the
// node records it produced plus a path->index map scoped to this file.
func parseDocument(file string, root *yaml.Node) ([]nodeRecord, map[string]NodeIndex, error) {
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return nil, nil, stateerrors.NewManifestError(stateerrors.YamlParseError, file, "empty or malformed document", nil)
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, nil, stateerrors.NewManifestError(stateerrors.YamlParseError, file, "root of manifest must be a mapping", nil)
	}

	p := newParser(file)
	if err := p.walk(mapping, nil, noParent, false, MetaBlock{}, MetaBlock{}, MetaBlock{}); err != nil {
		return nil, nil, err
	}
	return p.nodes, p.index, nil
}

// walk processes one mapping node: it splits meta keys from field keys,
// composes this level's effective meta by shallow-merging over what was
// inherited, then recurses into each field key in document order.
func (p *parser) walk(mapping *yaml.Node, ancestors []string, parent NodeIndex, hasParent bool, inheritedState, inheritedStore, inheritedLoad MetaBlock) error {
	ownState, ownStore, ownLoad, fields, err := splitMapping(p.file, mapping)
	if err != nil {
		return err
	}

	effState := mergeMeta(inheritedState, ownState)
	effStore := mergeMeta(inheritedStore, ownStore)
	effLoad := mergeMeta(inheritedLoad, ownLoad)

	for _, f := range fields {
		childAncestors := append(append([]string{}, ancestors...), f.key)
		qualState := qualifyMeta(effState, p.file, childAncestors)
		qualStore := qualifyMeta(effStore, p.file, childAncestors)
		qualLoad := qualifyMeta(effLoad, p.file, childAncestors)

		path := p.file + "." + strings.Join(childAncestors, ".")
		rec := nodeRecord{
			path:      path,
			file:      p.file,
			segment:   f.key,
			parent:    parent,
			hasParent: hasParent,
			leaf:      leafValue(f.node),
			state:     qualState,
			store:     qualStore,
			load:      qualLoad,
		}
		idx := NodeIndex(len(p.nodes))
		p.nodes = append(p.nodes, rec)
		p.index[path] = idx

		if f.node.Kind == yaml.MappingNode {
			if err := p.walk(f.node, childAncestors, idx, true, effState, effStore, effLoad); err != nil {
				return err
			}
			// Record children discovered by the recursive call: they were
			// appended to p.nodes after idx, so collect any whose parent is idx.
			for i := int(idx) + 1; i < len(p.nodes); i++ {
				if p.nodes[i].hasParent && p.nodes[i].parent == idx {
					p.nodes[idx].children = append(p.nodes[idx].children, Entry{Key: p.nodes[i].segment, Index: NodeIndex(i)})
				}
			}
		}
	}
	return nil
}

type fieldEntry struct {
	key  string
	node *yaml.Node
}

// splitMapping separates a mapping's pairs into its three meta blocks and
// its ordered, non-meta field entries.
func splitMapping(file string, mapping *yaml.Node) (state, store, load MetaBlock, fields []fieldEntry, err error) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valNode := mapping.Content[i+1]
		key := keyNode.Value

		switch key {
		case metaState, metaStore, metaLoad:
			if valNode.Kind != yaml.MappingNode {
				return nil, nil, nil, nil, stateerrors.NewManifestError(stateerrors.InvalidMeta, file, key+" must be a mapping", nil)
			}
			block, decErr := decodeMetaBlock(valNode)
			if decErr != nil {
				return nil, nil, nil, nil, stateerrors.NewManifestError(stateerrors.InvalidMeta, file, key+": "+decErr.Error(), decErr)
			}
			switch key {
			case metaState:
				state = block
			case metaStore:
				store = block
			case metaLoad:
				load = block
			}
		default:
			if strings.HasPrefix(key, "_") {
				continue // private annotation, not a field
			}
			fields = append(fields, fieldEntry{key: key, node: valNode})
		}
	}
	return state, store, load, fields, nil
}

// decodeMetaBlock turns a YAML mapping node into a MetaBlock, preserving
// nested structure (e.g. _load.map) as plain Value lists/maps.
func decodeMetaBlock(mapping *yaml.Node) (MetaBlock, error) {
	out := make(MetaBlock)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		var raw interface{}
		if err := mapping.Content[i+1].Decode(&raw); err != nil {
			return nil, err
		}
		out[key] = value.FromNative(raw)
	}
	return out, nil
}

// mergeMeta shallow-merges child over parent: a key present in child
// replaces the parent's value for that key entirely; keys absent from
// child are inherited unchanged. Never merges into nested map values.
func mergeMeta(parent, child MetaBlock) MetaBlock {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	out := make(MetaBlock, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

// qualifyMeta rewrites every placeholder path found inside a meta block's
// string values (including strings nested in lists/maps) to its absolute
// form, using the ancestor chain of the node the effective meta now
// belongs to: qualification happens once, after inheritance has composed
// the effective block for this node.
func qualifyMeta(meta MetaBlock, file string, ancestors []string) MetaBlock {
	if len(meta) == 0 {
		return nil
	}
	out := make(MetaBlock, len(meta))
	for k, v := range meta {
		out[k] = qualifyValue(v, file, ancestors)
	}
	return out
}

func qualifyValue(v value.Value, file string, ancestors []string) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return value.String(qualifyString(s, file, ancestors))
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = qualifyValue(item, file, ancestors)
		}
		return value.List(out)
	case value.KindMap:
		m, _ := v.AsMap()
		out := make(map[string]value.Value, len(m))
		for k, item := range m {
			out[k] = qualifyValue(item, file, ancestors)
		}
		return value.Map(out)
	default:
		return v
	}
}

// qualifyString rewrites the inner path of every ${...} token in s. Plain
// strings with no placeholder pass through untouched.
func qualifyString(s, file string, ancestors []string) string {
	paths := placeholder.Extract(s)
	if len(paths) == 0 {
		return s
	}
	out := s
	for _, p := range paths {
		out = strings.Replace(out, "${"+p+"}", "${"+pathqual.Qualify(p, file, ancestors)+"}", 1)
	}
	return out
}

// leafValue converts a field's YAML value into the node's manifest-authored
// default, excluding meta keys from any nested mapping at any depth.
func leafValue(n *yaml.Node) value.Value {
	var raw interface{}
	if err := n.Decode(&raw); err != nil {
		return value.Null()
	}
	return value.FromNative(stripMeta(raw))
}

// stripMeta recursively removes underscore-prefixed keys from nested maps
// so a node's default value never leaks a descendant's _state/_store/_load.
func stripMeta(raw interface{}) interface{} {
	switch t := raw.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			if strings.HasPrefix(k, "_") {
				continue
			}
			out[k] = stripMeta(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = stripMeta(v)
		}
		return out
	default:
		return raw
	}
}
