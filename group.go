package coordinate

import (
	"fmt"

	"github.com/tidwall/btree"
)

// GroupID identifies the set of replica nodes that must act in concert.
// Opaque to the coordinator; supplied by the caller.
type GroupID string

// NodeID identifies a single node within a group.
type NodeID string

// Group is the ordered node set behind a GroupID.  Node addresses are kept
// in a sorted map so that every fan-out sees the same stable node ordering
// regardless of insertion order or completion order of the underlying
// calls.  A Group is read-only for the duration of one Coordinate call.
type Group struct {
	id    GroupID
	nodes *btree.Map[NodeID, string]
}

// NewGroup creates an empty group.
func NewGroup(id GroupID) *Group {
	return &Group{
		id:    id,
		nodes: btree.NewMap[NodeID, string](8),
	}
}

// ID returns the group identifier.
func (g *Group) ID() GroupID {
	return g.id
}

// Add registers a node and its base address with the group.
func (g *Group) Add(node NodeID, addr string) {
	g.nodes.Set(node, addr)
}

// Nodes returns the node identifiers in stable (sorted) order.
func (g *Group) Nodes() []NodeID {
	out := make([]NodeID, 0, g.nodes.Len())
	g.nodes.Scan(func(id NodeID, _ string) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Addr returns the base address of a node.
func (g *Group) Addr(node NodeID) (string, bool) {
	return g.nodes.Get(node)
}

// Len returns the number of nodes in the group.
func (g *Group) Len() int {
	return g.nodes.Len()
}

// Membership resolves a GroupID to its node set.  Implementations must
// return a Group that stays stable for the duration of one Coordinate call;
// membership changes mid-attempt are out of scope.
type Membership interface {
	Lookup(id GroupID) (*Group, error)
}

// StaticMembership is a fixed in-memory membership source, built once at
// startup from configuration.
type StaticMembership struct {
	groups map[GroupID]*Group
}

// NewStaticMembership builds a membership source from group definitions:
// group ID to node ID to base address.
func NewStaticMembership(defs map[GroupID]map[NodeID]string) *StaticMembership {
	groups := make(map[GroupID]*Group, len(defs))
	for gid, nodes := range defs {
		g := NewGroup(gid)
		for nid, addr := range nodes {
			g.Add(nid, addr)
		}
		groups[gid] = g
	}
	return &StaticMembership{groups: groups}
}

// Lookup implements Membership.
func (m *StaticMembership) Lookup(id GroupID) (*Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("unknown group %q", id)
	}
	return g, nil
}
