// Package statetree indexes dependency sets into a prefix tree so that states
// differing in a single dependency can be related to each other.
package statetree

import (
	"slices"
	"strings"
)

// #region constants

// Root is the index of the root node.
const Root = 0

// RootKey is the serialization of the root (empty dependency set).
const RootKey = "text"

const (
	labelSep = ":"
	keySep   = "\x1f"
)

// #endregion constants

// #region node

type node struct {
	label    string
	parent   int
	children map[string]int
}

// #endregion node

// #region tree

// Tree is an append-only arena of nodes. A path from the root spells one
// sorted dependency set. Not safe for concurrent use.
type Tree struct {
	nodes []node
	// key(prefix, label) -> node index
	abstraction map[string]int
}

// New creates a tree holding only the root.
func New() *Tree {
	return &Tree{
		nodes:       []node{{parent: -1, children: make(map[string]int)}},
		abstraction: make(map[string]int),
	}
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Label returns the dependency label of node id. The root has an empty label.
func (t *Tree) Label(id int) string { return t.nodes[id].label }

// Parent returns the parent index of node id, or -1 for the root.
func (t *Tree) Parent(id int) int { return t.nodes[id].parent }

// #endregion tree

// #region find

// Find returns the node whose root path spells the sorted, de-duplicated
// deps, creating missing nodes on the way.
func (t *Tree) Find(deps []string) int {
	sorted := normalize(deps)
	cur := Root
	for i, label := range sorted {
		next, ok := t.nodes[cur].children[label]
		if !ok {
			next = len(t.nodes)
			t.nodes = append(t.nodes, node{label: label, parent: cur, children: make(map[string]int)})
			t.nodes[cur].children[label] = next
			key := abstractionKey(sorted[:i], label)
			if _, exists := t.abstraction[key]; !exists {
				t.abstraction[key] = next
			}
		}
		cur = next
	}
	return cur
}

// lookup walks an exact path without creating nodes.
func (t *Tree) lookup(prefix []string, last string) (int, bool) {
	id, ok := t.abstraction[abstractionKey(prefix, last)]
	return id, ok
}

// #endregion find

// #region abstractly-related

// AbstractlyRelated returns nodes that share the current set's last
// dependency but have one of candidates in the first sorted position. The
// direct parent of the current node is always included. Only the first
// position is substituted.
func (t *Tree) AbstractlyRelated(scoped []string, candidates []string) []int {
	sorted := normalize(scoped)
	var related []int
	seen := make(map[int]bool)
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			related = append(related, id)
		}
	}

	if len(sorted) >= 2 {
		last := sorted[len(sorted)-1]
		before := sorted[:len(sorted)-1]
		for _, candidate := range candidates {
			modified := slices.Clone(before)
			modified[0] = candidate
			if id, ok := t.lookup(modified, last); ok {
				add(id)
			}
		}
	}

	current := t.Find(sorted)
	if parent := t.nodes[current].parent; parent >= 0 {
		add(parent)
	}
	return related
}

// #endregion abstractly-related

// #region serialize

// Serialize joins the labels from id up to the root, most specific first.
// The root serializes to RootKey.
func (t *Tree) Serialize(id int) string {
	if id == Root {
		return RootKey
	}
	var labels []string
	for cur := id; cur > Root; cur = t.nodes[cur].parent {
		labels = append(labels, t.nodes[cur].label)
	}
	return strings.Join(labels, labelSep)
}

// #endregion serialize

// #region helpers

func normalize(deps []string) []string {
	sorted := slices.Clone(deps)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func abstractionKey(prefix []string, last string) string {
	return strings.Join(prefix, keySep) + "\x1e" + last
}

// #endregion helpers
