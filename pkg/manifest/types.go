package manifest

import "github.com/declarative-state/state-engine/pkg/value"

// NodeIndex addresses a parsed Node within a Manifest's node pool. A State
// instance keys its cache by this u16 index rather than by string path.
type NodeIndex uint16

// noParent is the sentinel stored in nodeRecord.parent when a node is a
// top-level field of its file (no owning ancestor node).
const noParent = NodeIndex(^uint16(0))

// MetaBlock is one _state/_store/_load block: a shallow key/value map.
// Inheritance overrides are applied key-by-key at this top level only —
// never recursively into nested map values. There is no deep merge of
// nested maps.
type MetaBlock map[string]value.Value

// Entry is one (child key, node index) pair as returned by Children, in
// the order the field appeared in its YAML document.
type Entry struct {
	Key   string
	Index NodeIndex
}

// nodeRecord is the pooled, immutable representation of one parsed Node.
type nodeRecord struct {
	path    string // fully qualified: "file.segment.segment..."
	file    string
	segment string // last path component
	parent  NodeIndex
	hasParent bool
	children  []Entry
	leaf      value.Value

	state MetaBlock
	store MetaBlock
	load  MetaBlock
}
