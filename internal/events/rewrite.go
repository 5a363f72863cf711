package events

import "time"

// RewriteStart is emitted before the clients of a configuration are rewritten.
type RewriteStart struct {
	Generation uint64
	Clients    int
}

// RewriteFinish is emitted after a configuration rewrite completes.
type RewriteFinish struct {
	Generation uint64
	Changed    int
	Err        error
	Duration   time.Duration
}

// ClientRewriteStart is emitted before a single client configuration is rewritten.
// Transport is "http" or "websocket".
type ClientRewriteStart struct {
	Generation uint64
	Subgraph   string
	Transport  string
}

// ClientRewriteFinish is emitted after a single client configuration is rewritten.
type ClientRewriteFinish struct {
	Generation uint64
	Subgraph   string
	Transport  string
	Changed    bool
	Err        error
	Duration   time.Duration
}
