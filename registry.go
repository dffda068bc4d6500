package coordinate

import (
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// ClientRegistry holds the NodeClient instance for every known node.
//
// Clients are identified by their NodeID.  Connection state (pooling, base
// URLs) lives inside each explicitly constructed client, never in ambient
// process-wide globals; the dispatcher borrows clients from the registry for
// the lifetime of one coordinator instance.  The map is concurrent because
// the service endpoint may run many Coordinate calls at once over the same
// registry.
type ClientRegistry struct {
	clients *xsync.MapOf[NodeID, NodeClient]
}

// NewClientRegistry creates an empty ClientRegistry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: xsync.NewMapOf[NodeID, NodeClient](),
	}
}

// Register adds a client for a node to the registry.
func (r *ClientRegistry) Register(node NodeID, client NodeClient) error {
	if _, ok := r.clients.Load(node); ok {
		return fmt.Errorf("client for node '%s' already registered", node)
	}
	r.clients.Store(node, client)
	return nil
}

// RegisterGroup constructs and registers an HTTPNodeClient for every node of
// the group that does not have a client yet.
func (r *ClientRegistry) RegisterGroup(g *Group, timeout time.Duration) {
	for _, node := range g.Nodes() {
		addr, _ := g.Addr(node)
		r.clients.LoadOrStore(node, NodeClient(NewHTTPNodeClient(addr, timeout)))
	}
}

// Get retrieves the client for a node.
func (r *ClientRegistry) Get(node NodeID) (NodeClient, error) {
	client, ok := r.clients.Load(node)
	if !ok {
		return nil, fmt.Errorf("no client registered for node '%s'", node)
	}
	return client, nil
}
