package infrastructure

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
)

// NodePool holds the audio nodes available for searching.
type NodePool struct {
	mu       sync.RWMutex
	nodes    map[string]ports.Node
	onRemove func(id string)
}

// NewNodePool creates an empty NodePool. onRemove, if non-nil, is called
// after a node has been evicted.
func NewNodePool(onRemove func(id string)) *NodePool {
	return &NodePool{
		nodes:    make(map[string]ports.Node),
		onRemove: onRemove,
	}
}

// Add registers a node, replacing any node with the same ID.
func (p *NodePool) Add(node ports.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nodes[node.ID()] = node
}

// Remove evicts the node. Returns false if it was not present.
func (p *NodePool) Remove(id string) bool {
	p.mu.Lock()
	_, ok := p.nodes[id]
	delete(p.nodes, id)
	p.mu.Unlock()

	if ok && p.onRemove != nil {
		p.onRemove(id)
	}
	return ok
}

// ByLoad returns the nodes ordered by ascending load, ties broken by ID.
func (p *NodePool) ByLoad() []ports.Node {
	p.mu.RLock()
	nodes := lo.Values(p.nodes)
	p.mu.RUnlock()

	type loaded struct {
		node ports.Node
		load int
	}
	snapshot := lo.Map(nodes, func(n ports.Node, _ int) loaded {
		return loaded{node: n, load: n.Load()}
	})
	slices.SortStableFunc(snapshot, func(a, b loaded) int {
		if c := cmp.Compare(a.load, b.load); c != 0 {
			return c
		}
		return cmp.Compare(a.node.ID(), b.node.ID())
	})

	return lo.Map(snapshot, func(l loaded, _ int) ports.Node { return l.node })
}

// Len returns the number of nodes in the pool.
func (p *NodePool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.nodes)
}

// Ensure NodePool implements ports.NodePool.
var _ ports.NodePool = (*NodePool)(nil)
