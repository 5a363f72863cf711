package rewriter

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	fusion "github.com/hanpama/fusiongraph/internal/fusion"
)

// ClientRewriter rewrites subgraph client configurations before a configuration
// becomes active. Implementations receive a copy they may modify and return.
// Returning the input unchanged, or nil, keeps the client as configured.
type ClientRewriter interface {
	RewriteHTTPClient(ctx context.Context, c *fusion.HTTPClientConfiguration) (*fusion.HTTPClientConfiguration, error)
	RewriteWebSocketClient(ctx context.Context, c *fusion.WebSocketClientConfiguration) (*fusion.WebSocketClientConfiguration, error)
}

// ClientRewriterFuncs adapts plain functions to ClientRewriter. A nil function
// keeps the corresponding clients unchanged.
type ClientRewriterFuncs struct {
	HTTP      func(context.Context, *fusion.HTTPClientConfiguration) (*fusion.HTTPClientConfiguration, error)
	WebSocket func(context.Context, *fusion.WebSocketClientConfiguration) (*fusion.WebSocketClientConfiguration, error)
}

func (f ClientRewriterFuncs) RewriteHTTPClient(ctx context.Context, c *fusion.HTTPClientConfiguration) (*fusion.HTTPClientConfiguration, error) {
	if f.HTTP == nil {
		return c, nil
	}
	return f.HTTP(ctx, c)
}

func (f ClientRewriterFuncs) RewriteWebSocketClient(ctx context.Context, c *fusion.WebSocketClientConfiguration) (*fusion.WebSocketClientConfiguration, error) {
	if f.WebSocket == nil {
		return c, nil
	}
	return f.WebSocket(ctx, c)
}

// EndpointRewriter replaces each client's base address with the first endpoint
// its provider reports for the client's subgraph.
type EndpointRewriter struct {
	provider EndpointProvider
}

func NewEndpointRewriter(p EndpointProvider) *EndpointRewriter {
	return &EndpointRewriter{provider: p}
}

func (r *EndpointRewriter) RewriteHTTPClient(ctx context.Context, c *fusion.HTTPClientConfiguration) (*fusion.HTTPClientConfiguration, error) {
	address, err := r.resolve(ctx, c.Subgraph, TransportHTTP, c.BaseAddress)
	if err != nil {
		return nil, err
	}
	c.BaseAddress = address
	return c, nil
}

func (r *EndpointRewriter) RewriteWebSocketClient(ctx context.Context, c *fusion.WebSocketClientConfiguration) (*fusion.WebSocketClientConfiguration, error) {
	address, err := r.resolve(ctx, c.Subgraph, TransportWebSocket, c.BaseAddress)
	if err != nil {
		return nil, err
	}
	c.BaseAddress = address
	return c, nil
}

func (r *EndpointRewriter) resolve(ctx context.Context, subgraph string, transport Transport, current *url.URL) (*url.URL, error) {
	if r.provider == nil {
		return current, nil
	}
	endpoints, err := r.provider.Endpoints(ctx, subgraph, transport)
	if errors.Is(err, ErrNoEndpoints) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	address, err := url.Parse(endpoints[0])
	if err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", endpoints[0], err)
	}
	if !address.IsAbs() {
		return nil, fmt.Errorf("endpoint %q: address must be absolute", endpoints[0])
	}
	return address, nil
}
