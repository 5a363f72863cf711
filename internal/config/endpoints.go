// Package config reads the endpoint mapping files used to rewrite subgraph
// client addresses at deployment time.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	rewriter "github.com/hanpama/fusiongraph/internal/rewriter"
)

// Endpoints maps subgraph names to the addresses their clients should use.
//
//	subgraphs:
//	  catalog:
//	    http: http://catalog.svc:8080/graphql
//	    websocket: ws://catalog.svc:8080/graphql
type Endpoints struct {
	Subgraphs map[string]SubgraphEndpoints `yaml:"subgraphs"`
}

// SubgraphEndpoints holds the addresses of one subgraph. Empty fields leave
// the configured address in place.
type SubgraphEndpoints struct {
	HTTP      string `yaml:"http,omitempty"`
	WebSocket string `yaml:"websocket,omitempty"`
}

// LoadEndpoints reads an endpoints file from path.
func LoadEndpoints(path string) (*Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints: %w", err)
	}
	e, err := ParseEndpoints(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// ParseEndpoints decodes and validates an endpoints document. Unknown keys are rejected.
func ParseEndpoints(data []byte) (*Endpoints, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var e Endpoints
	if err := dec.Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode endpoints: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks that every address is an absolute URL.
func (e *Endpoints) Validate() error {
	var errs []error
	for _, name := range e.names() {
		if name == "" {
			errs = append(errs, errors.New("subgraph name must not be empty"))
			continue
		}
		s := e.Subgraphs[name]
		for _, address := range []struct{ key, value string }{{"http", s.HTTP}, {"websocket", s.WebSocket}} {
			if address.value == "" {
				continue
			}
			u, err := url.Parse(address.value)
			if err == nil && !u.IsAbs() {
				err = errors.New("address must be absolute")
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("subgraphs.%s.%s: %w", name, address.key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Set records an address for subgraph. transport is "http" or "websocket".
func (e *Endpoints) Set(subgraph string, transport rewriter.Transport, address string) error {
	if e.Subgraphs == nil {
		e.Subgraphs = make(map[string]SubgraphEndpoints)
	}
	s := e.Subgraphs[subgraph]
	switch transport {
	case rewriter.TransportHTTP:
		s.HTTP = address
	case rewriter.TransportWebSocket:
		s.WebSocket = address
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
	e.Subgraphs[subgraph] = s
	return nil
}

// Provider returns a static endpoint provider serving the configured addresses.
func (e *Endpoints) Provider() *rewriter.StaticEndpoints {
	http := make(map[string][]string)
	websocket := make(map[string][]string)
	for name, s := range e.Subgraphs {
		if s.HTTP != "" {
			http[name] = []string{s.HTTP}
		}
		if s.WebSocket != "" {
			websocket[name] = []string{s.WebSocket}
		}
	}
	return rewriter.NewStaticEndpoints(http, websocket)
}

func (e *Endpoints) names() []string {
	names := make([]string, 0, len(e.Subgraphs))
	for name := range e.Subgraphs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
