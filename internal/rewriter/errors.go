package rewriter

import "errors"

// ErrNoEndpoints is returned by an EndpointProvider that knows no endpoint for a subgraph.
var ErrNoEndpoints = errors.New("rewriter: no endpoints")
