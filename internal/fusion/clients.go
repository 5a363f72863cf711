package fusion

import (
	"net/url"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// HTTPClientConfiguration describes how to reach a subgraph over HTTP.
// Directive is the schema directive the configuration was read from.
type HTTPClientConfiguration struct {
	ClientName  string
	Subgraph    string
	BaseAddress *url.URL
	Directive   *language.Directive
}

// WebSocketClientConfiguration describes how to reach a subgraph over WebSocket.
type WebSocketClientConfiguration struct {
	ClientName  string
	Subgraph    string
	BaseAddress *url.URL
	Directive   *language.Directive
}
