package fusion

import (
	"errors"
	"net/url"

	language "github.com/hanpama/fusiongraph/internal/language"
)

var (
	clientArguments = [][]string{
		{"subgraph", "baseAddress"},
		{"clientName", "subgraph", "baseAddress"},
	}
	fusionArguments = [][]string{
		{},
		{versionArg},
		{prefixArg},
		{prefixArg, prefixSelfArg},
		{versionArg, prefixArg},
		{versionArg, prefixArg, prefixSelfArg},
	}
)

func (r *reader) readSchemaDefinition(def *language.SchemaDefinition) {
	for _, op := range def.OperationTypes {
		if op.Operation == language.Subscription {
			r.subscriptionType = op.Type
		}
	}

	for _, dir := range def.Directives {
		switch dir.Name {
		case r.names.HTTPClient:
			r.readHTTPClient(dir)
		case r.names.WebSocketClient:
			r.readWebSocketClient(dir)
		case r.names.Fusion:
			r.readFusion(dir)
		default:
			r.expectDirective(dir, "the schema definition", r.names.HTTPClient, r.names.WebSocketClient, r.names.Fusion)
		}
	}
}

func (r *reader) readFusion(dir *language.Directive) {
	args, ok := r.directiveArguments(dir, fusionArguments...)
	if !ok {
		return
	}
	if v, ok := args[versionArg]; ok {
		r.getIntValue(v)
	}
	if v, ok := args[prefixArg]; ok {
		r.getStringValue(v)
	}
	if v, ok := args[prefixSelfArg]; ok {
		r.getBoolValue(v)
	}
}

func (r *reader) readHTTPClient(dir *language.Directive) {
	clientName, subgraph, address, ok := r.readClient(dir)
	if !ok {
		return
	}
	for _, existing := range r.httpClients {
		if existing.Subgraph == subgraph {
			r.addViolation(violationDuplicateClient("HTTP", subgraph, dir.Position))
			return
		}
	}
	r.addSubgraph(subgraph)
	r.httpClients = append(r.httpClients, &HTTPClientConfiguration{
		ClientName:  clientName,
		Subgraph:    subgraph,
		BaseAddress: address,
		Directive:   dir,
	})
}

func (r *reader) readWebSocketClient(dir *language.Directive) {
	clientName, subgraph, address, ok := r.readClient(dir)
	if !ok {
		return
	}
	for _, existing := range r.webSocketClients {
		if existing.Subgraph == subgraph {
			r.addViolation(violationDuplicateClient("WebSocket", subgraph, dir.Position))
			return
		}
	}
	r.addSubgraph(subgraph)
	r.webSocketClients = append(r.webSocketClients, &WebSocketClientConfiguration{
		ClientName:  clientName,
		Subgraph:    subgraph,
		BaseAddress: address,
		Directive:   dir,
	})
}

func (r *reader) readClient(dir *language.Directive) (clientName, subgraph string, address *url.URL, ok bool) {
	args, ok := r.directiveArguments(dir, clientArguments...)
	if !ok {
		return "", "", nil, false
	}
	subgraph, ok = r.getStringValue(args["subgraph"])
	if !ok {
		return "", "", nil, false
	}
	rawAddress, ok := r.getStringValue(args["baseAddress"])
	if !ok {
		return "", "", nil, false
	}
	clientName = subgraph
	if v, exists := args["clientName"]; exists {
		if clientName, ok = r.getStringValue(v); !ok {
			return "", "", nil, false
		}
	}

	address, err := url.Parse(rawAddress)
	if err == nil && !address.IsAbs() {
		err = errors.New("address must be absolute")
	}
	if err != nil {
		r.addViolation(violationInvalidBaseAddress(subgraph, rawAddress, err, args["baseAddress"].Position))
		return "", "", nil, false
	}
	return clientName, subgraph, address, true
}
