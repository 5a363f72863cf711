package rewriter

import (
	"testing"

	fusion "github.com/hanpama/fusiongraph/internal/fusion"
	"github.com/stretchr/testify/require"
)

func TestStaticEndpoints(t *testing.T) {
	src := map[string][]string{"a": {"http://a1", "http://a2"}}
	p := NewStaticEndpoints(src, nil)
	src["a"][0] = "mutated"

	got, err := p.Endpoints(t.Context(), "a", TransportHTTP)
	require.NoError(t, err)
	require.Equal(t, []string{"http://a1", "http://a2"}, got)
	got[1] = "mutated"

	again, err := p.Endpoints(t.Context(), "a", TransportHTTP)
	require.NoError(t, err)
	require.Equal(t, "http://a2", again[1])

	_, err = p.Endpoints(t.Context(), "a", TransportWebSocket)
	require.ErrorIs(t, err, ErrNoEndpoints)

	p.Set(TransportWebSocket, "a", "ws://a")
	got, err = p.Endpoints(t.Context(), "a", TransportWebSocket)
	require.NoError(t, err)
	require.Equal(t, []string{"ws://a"}, got)
}

func TestEndpointRewriter(t *testing.T) {
	cfg, err := fusion.Load(`
schema @httpClient(subgraph: "a", baseAddress: "http://a") @httpClient(subgraph: "b", baseAddress: "http://b") {
  query: Query
}
type Query { a: String @source(subgraph: "a") }
`)
	require.NoError(t, err)
	a, _ := cfg.TryGetHTTPClient("a")
	b, _ := cfg.TryGetHTTPClient("b")

	r := NewEndpointRewriter(NewStaticEndpoints(map[string][]string{"a": {"https://a.internal/graphql"}, "b": {"relative"}}, nil))

	in := *a
	out, err := r.RewriteHTTPClient(t.Context(), &in)
	require.NoError(t, err)
	require.Equal(t, "https://a.internal/graphql", out.BaseAddress.String())
	require.Equal(t, "http://a", a.BaseAddress.String())

	in = *b
	_, err = r.RewriteHTTPClient(t.Context(), &in)
	require.ErrorContains(t, err, "address must be absolute")

	unknown := *a
	unknown.Subgraph = "c"
	out, err = r.RewriteHTTPClient(t.Context(), &unknown)
	require.NoError(t, err)
	require.Equal(t, "http://a", out.BaseAddress.String())
}

func TestWithConcurrency(t *testing.T) {
	o := defaultOptions()
	WithConcurrency(0)(o)
	require.Equal(t, 1, o.Concurrency)
	WithConcurrency(8)(o)
	require.Equal(t, 8, o.Concurrency)
	WithLogger(nil)(o)
	require.NotNil(t, o.Logger)
}
