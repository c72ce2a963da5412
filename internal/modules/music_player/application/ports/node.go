package ports

import (
	"context"
)

// Node is a single audio backend node that can resolve search queries.
type Node interface {
	// ID returns the unique name of the node.
	ID() string

	// Load returns the number of players currently hosted by the node.
	Load() int

	// Search resolves a backend query (a URL or a "prefix:terms" search).
	Search(ctx context.Context, query string) (*LoadResult, error)
}

// NodePool tracks the available audio backend nodes.
type NodePool interface {
	// ByLoad returns a snapshot of the nodes ordered by ascending load.
	ByLoad() []Node

	// Remove evicts the node from the pool. Returns false if it was not present.
	Remove(id string) bool

	// Len returns the number of nodes in the pool.
	Len() int
}
