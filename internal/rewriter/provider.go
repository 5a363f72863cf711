package rewriter

import (
	"context"
	"sync"
)

// Transport names the protocol a subgraph client speaks.
type Transport string

const (
	TransportHTTP      Transport = "http"
	TransportWebSocket Transport = "websocket"
)

// EndpointProvider provides the reachable base addresses of a subgraph for a transport.
// Implementations may integrate with service discovery/registry systems.
// Return at least one endpoint or an error; ErrNoEndpoints leaves the client as configured.
// Implementations should be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, subgraph string, transport Transport) ([]string, error)
}

// StaticEndpoints is a simple provider backed by in-memory maps keyed by subgraph name.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[Transport]map[string][]string
}

func NewStaticEndpoints(http, websocket map[string][]string) *StaticEndpoints {
	s := &StaticEndpoints{data: make(map[Transport]map[string][]string, 2)}
	for k, v := range http {
		s.Set(TransportHTTP, k, v...)
	}
	for k, v := range websocket {
		s.Set(TransportWebSocket, k, v...)
	}
	return s
}

// Set replaces the endpoints of subgraph for transport.
func (s *StaticEndpoints) Set(transport Transport, subgraph string, endpoints ...string) {
	vv := make([]string, len(endpoints))
	copy(vv, endpoints)

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.data[transport]
	if m == nil {
		m = make(map[string][]string)
		s.data[transport] = m
	}
	m[subgraph] = vv
}

func (s *StaticEndpoints) Endpoints(ctx context.Context, subgraph string, transport Transport) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[transport][subgraph]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(arr))
	copy(out, arr)
	return out, nil
}
