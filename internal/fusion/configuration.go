package fusion

import (
	"fmt"
	"slices"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// Configuration is the immutable metadata model of a fusion graph
// configuration document. It is built once by Load and is safe for
// concurrent use.
type Configuration struct {
	generation uint64
	document   *language.SchemaDocument
	names      DirectiveNames

	subgraphs []string
	types     map[string]NamedType
	typeOrder []string

	httpClients      []*HTTPClientConfiguration
	webSocketClients []*WebSocketClientConfiguration

	// subgraph-local <-> merged type names, only where they differ
	mergedNames   map[[2]string]string
	subgraphNames map[[2]string]string

	entities      map[string][]string
	subgraphInfos []SubgraphInfo
}

// Generation is the sequence number of the load that produced this configuration.
func (c *Configuration) Generation() uint64 { return c.generation }

// Document returns the document the configuration was read from. Callers must not modify it.
func (c *Configuration) Document() *language.SchemaDocument { return c.document }

func (c *Configuration) DirectiveNames() DirectiveNames { return c.names }

func (c *Configuration) SubgraphNames() []string { return slices.Clone(c.subgraphs) }

// TypeNames returns the merged type names in document order.
func (c *Configuration) TypeNames() []string { return slices.Clone(c.typeOrder) }

func (c *Configuration) HTTPClients() []*HTTPClientConfiguration {
	return slices.Clone(c.httpClients)
}

func (c *Configuration) WebSocketClients() []*WebSocketClientConfiguration {
	return slices.Clone(c.webSocketClients)
}

func (c *Configuration) TryGetHTTPClient(subgraph string) (*HTTPClientConfiguration, bool) {
	for _, hc := range c.httpClients {
		if hc.Subgraph == subgraph {
			return hc, true
		}
	}
	return nil, false
}

func (c *Configuration) TryGetWebSocketClient(subgraph string) (*WebSocketClientConfiguration, bool) {
	for _, wc := range c.webSocketClients {
		if wc.Subgraph == subgraph {
			return wc, true
		}
	}
	return nil, false
}

// Subgraphs describes, per subgraph, the entities it can fetch by key.
func (c *Configuration) Subgraphs() []SubgraphInfo {
	out := make([]SubgraphInfo, len(c.subgraphInfos))
	for i, info := range c.subgraphInfos {
		out[i] = SubgraphInfo{Name: info.Name, Entities: slices.Clone(info.Entities)}
	}
	return out
}

// GetTypeName translates a subgraph-local type name to the merged name.
func (c *Configuration) GetTypeName(subgraph, name string) string {
	if merged, ok := c.mergedNames[[2]string{subgraph, name}]; ok {
		return merged
	}
	return name
}

// GetSubgraphTypeName translates a merged type name to the subgraph-local name.
func (c *Configuration) GetSubgraphTypeName(subgraph, mergedName string) string {
	if local, ok := c.subgraphNames[[2]string{subgraph, mergedName}]; ok {
		return local
	}
	return mergedName
}

// GetAvailableSubgraphs returns the subgraphs that can fetch the entity by key.
// The result is empty, never nil, for unknown entities.
func (c *Configuration) GetAvailableSubgraphs(entityName string) []string {
	subgraphs, ok := c.entities[entityName]
	if !ok {
		return []string{}
	}
	return slices.Clone(subgraphs)
}

// GetType returns the named type as T. It fails with ErrTypeNotFound when the
// type is missing or is not a T.
func GetType[T NamedType](c *Configuration, name string) (T, error) {
	t, ok := TryGetType[T](c, name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return t, nil
}

func TryGetType[T NamedType](c *Configuration, name string) (T, bool) {
	var zero T
	t, ok := c.types[name]
	if !ok {
		return zero, false
	}
	typed, ok := t.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
