package filter

import (
	"encoding/json"
	"slices"
	"sort"
)

// Tree is a trie of filter predicates keyed by path segment.
//
// Collision rules:
//   - a later insert at an existing leaf path replaces the leaf
//   - descending through a scalar leaf turns it into a branch
//   - a scalar inserted where a branch exists replaces the whole branch
//   - object values are expanded into the trie, so they merge with siblings
type Tree struct {
	root *node
}

type node struct {
	children map[string]*node
	order    []string
	leaf     bool
	value    any
}

func newBranch() *node {
	return &node{children: map[string]*node{}}
}

// NewTree returns an empty tree
func NewTree() *Tree {
	return &Tree{root: newBranch()}
}

// Insert places value at path, following the collision rules
func (t *Tree) Insert(path []string, value any) {
	if len(path) == 0 {
		if m, ok := value.(map[string]any); ok {
			t.expand(t.root, nil, m)
		}
		return
	}
	parent := t.root
	for _, seg := range path[:len(path)-1] {
		parent = parent.child(seg)
	}
	last := path[len(path)-1]

	if m, ok := value.(map[string]any); ok {
		target := parent.child(last)
		t.expand(target, path, m)
		return
	}
	parent.set(last, &node{leaf: true, value: value})
}

func (t *Tree) expand(n *node, path []string, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sub := append(slices.Clone(path), k)
		if child, ok := m[k].(map[string]any); ok {
			t.expand(n.child(k), sub, child)
			continue
		}
		n.set(k, &node{leaf: true, value: m[k]})
	}
}

// child returns the branch under seg, creating it or replacing a leaf
func (n *node) child(seg string) *node {
	c, ok := n.children[seg]
	if ok && !c.leaf {
		return c
	}
	b := newBranch()
	n.set(seg, b)
	return b
}

func (n *node) set(seg string, c *node) {
	if _, ok := n.children[seg]; !ok {
		n.order = append(n.order, seg)
	}
	n.children[seg] = c
}

// Empty reports whether nothing has been inserted
func (t *Tree) Empty() bool {
	return t == nil || len(t.root.children) == 0
}

// Lookup returns the value stored at path. Branches come back as maps.
func (t *Tree) Lookup(path ...string) (any, bool) {
	if t == nil {
		return nil, false
	}
	n := t.root
	for _, seg := range path {
		if n.leaf {
			return nil, false
		}
		c, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		n = c
	}
	return n.export(), true
}

// Map returns the nested wire representation
func (t *Tree) Map() map[string]any {
	if t == nil {
		return map[string]any{}
	}
	return t.root.export().(map[string]any)
}

// Fields returns the top-level keys in insertion order
func (t *Tree) Fields() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.root.order)
}

func (n *node) export() any {
	if n.leaf {
		return n.value
	}
	out := make(map[string]any, len(n.children))
	for _, k := range n.order {
		out[k] = n.children[k].export()
	}
	return out
}

// MarshalJSON writes the nested object. encoding/json sorts map keys, so
// output is stable for equal trees.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// UnmarshalJSON rebuilds a tree from its wire form
func (t *Tree) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	t.root = newBranch()
	t.Insert(nil, m)
	return nil
}

// FromMap builds a tree from an already nested object
func FromMap(m map[string]any) *Tree {
	t := NewTree()
	t.Insert(nil, m)
	return t
}

// String returns the JSON form, or "{}" for an empty tree
func (t *Tree) String() string {
	b, err := t.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
