package catalog

import (
	"context"
	"fmt"
)

// Node is a browsable catalog entry. Leaf nodes carry a question Count;
// branch nodes express progress as a (Done, Total) pair, never a Count.
type Node struct {
	ID    string
	Name  string
	Path  string // fully-qualified category path
	Leaf  bool
	Level int
	Count int // leaf-only tally
	Done  int
	Total int
}

// Fetcher loads the direct children of a node from the catalog service.
// A nil parentID (empty string) requests the root level.
type Fetcher interface {
	ChildNodes(ctx context.Context, source, parentID string) ([]Node, error)
}

// ProgressReader supplies the local done-count for a leaf category.
type ProgressReader interface {
	DoneCount(ctx context.Context, subject, category string) (int, error)
}

// Tree is an arena-style lazily expanding catalog: nodes keyed by ID,
// children stored as ID lists, expansion state as a separate map. Children
// are fetched at most once per node for the lifetime of the tree; switching
// the source discards everything and re-fetches the root.
type Tree struct {
	fetcher  Fetcher
	progress ProgressReader
	source   string

	nodes    map[string]*Node
	children map[string][]string
	expanded map[string]bool
	fetched  map[string]bool
	roots    []string
}

// New creates an empty tree for the given source. Call LoadRoot before use.
func New(fetcher Fetcher, progress ProgressReader, source string) *Tree {
	t := &Tree{fetcher: fetcher, progress: progress, source: source}
	t.clear()
	return t
}

func (t *Tree) clear() {
	t.nodes = make(map[string]*Node)
	t.children = make(map[string][]string)
	t.expanded = make(map[string]bool)
	t.fetched = make(map[string]bool)
	t.roots = nil
}

// Source returns the active question bank identifier.
func (t *Tree) Source() string { return t.source }

// LoadRoot fetches the root level. It is idempotent until SetSource.
func (t *Tree) LoadRoot(ctx context.Context) error {
	if t.fetched[""] {
		return nil
	}
	nodes, err := t.fetcher.ChildNodes(ctx, t.source, "")
	if err != nil {
		return fmt.Errorf("fetch catalog root: %w", err)
	}
	t.attach(ctx, "", nodes)
	return nil
}

// SetSource switches the active bank. The whole tree is invalidated and the
// root re-fetched; there is no partial-invalidation path. On fetch failure
// the tree is left empty rather than half-populated.
func (t *Tree) SetSource(ctx context.Context, source string) error {
	t.source = source
	t.clear()
	return t.LoadRoot(ctx)
}

// Toggle expands or collapses a branch node. Leaves are a no-op. The first
// expansion fetches and caches children; collapsing keeps them, so at most
// one fetch is issued per node. A failed fetch leaves the node collapsed
// and unfetched, and touches nothing else.
func (t *Tree) Toggle(ctx context.Context, nodeID string) error {
	n, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("unknown node %s", nodeID)
	}
	if n.Leaf {
		return nil
	}
	if t.expanded[nodeID] {
		t.expanded[nodeID] = false
		return nil
	}
	if err := t.Expand(ctx, nodeID); err != nil {
		return err
	}
	return nil
}

// Expand ensures a branch node is expanded, fetching children on first use.
func (t *Tree) Expand(ctx context.Context, nodeID string) error {
	n, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("unknown node %s", nodeID)
	}
	if n.Leaf {
		return nil
	}
	if !t.fetched[nodeID] {
		nodes, err := t.fetcher.ChildNodes(ctx, t.source, nodeID)
		if err != nil {
			return fmt.Errorf("fetch children of %s: %w", nodeID, err)
		}
		t.attach(ctx, nodeID, nodes)
	}
	t.expanded[nodeID] = true
	return nil
}

// attach stores fetched children and fills leaf done-counts from the local
// progress store. An empty child list is valid and terminal: the node is
// treated as a leaf-equivalent from then on.
func (t *Tree) attach(ctx context.Context, parentID string, nodes []Node) {
	ids := make([]string, 0, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if n.Leaf && t.progress != nil {
			if done, err := t.progress.DoneCount(ctx, t.source, n.Path); err == nil {
				n.Done = done
			}
		}
		t.nodes[n.ID] = &n
		t.children[n.ID] = nil
		ids = append(ids, n.ID)
	}
	t.children[parentID] = ids
	t.fetched[parentID] = true
	if parentID == "" {
		t.roots = ids
	}
}

// Node returns the node for id, or nil.
func (t *Tree) Node(id string) *Node { return t.nodes[id] }

// IsExpanded reports whether a node is currently expanded.
func (t *Tree) IsExpanded(id string) bool { return t.expanded[id] }

// HasFetched reports whether children for id have been fetched.
func (t *Tree) HasFetched(id string) bool { return t.fetched[id] }

// Children returns the cached child IDs of id (nil when unfetched).
func (t *Tree) Children(id string) []string { return t.children[id] }

// Roots returns the root node IDs.
func (t *Tree) Roots() []string { return t.roots }

// Progress returns the (done, total) pair for a node. Leaves report their
// local done-count against their question count. Branches aggregate fetched
// children; until children are fetched, the server-provided pair is used.
func (t *Tree) Progress(id string) (done, total int) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, 0
	}
	if n.Leaf {
		return n.Done, n.Count
	}
	if !t.fetched[id] {
		return n.Done, n.Total
	}
	for _, cid := range t.children[id] {
		d, tot := t.Progress(cid)
		done += d
		total += tot
	}
	return done, total
}

// Visible flattens the tree into display order, honoring expansion state.
func (t *Tree) Visible() []*Node {
	var out []*Node
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			n := t.nodes[id]
			if n == nil {
				continue
			}
			out = append(out, n)
			if !n.Leaf && t.expanded[id] {
				walk(t.children[id])
			}
		}
	}
	walk(t.roots)
	return out
}

// RefreshDone re-reads leaf done-counts from the progress store. Called
// when returning from a session so branch aggregates stay current.
func (t *Tree) RefreshDone(ctx context.Context) {
	if t.progress == nil {
		return
	}
	for _, n := range t.nodes {
		if !n.Leaf {
			continue
		}
		if done, err := t.progress.DoneCount(ctx, t.source, n.Path); err == nil {
			n.Done = done
		}
	}
}
