package fusion

import (
	"context"
	"fmt"
	"time"

	eventbus "github.com/hanpama/fusiongraph/internal/eventbus"
	events "github.com/hanpama/fusiongraph/internal/events"
	generation "github.com/hanpama/fusiongraph/internal/generation"
	language "github.com/hanpama/fusiongraph/internal/language"
)

const defaultSubscriptionType = "Subscription"

type reader struct {
	names            DirectiveNames
	subscriptionType string

	subgraphs        []string
	knownSubgraphs   map[string]struct{}
	httpClients      []*HTTPClientConfiguration
	webSocketClients []*WebSocketClientConfiguration

	types         map[string]NamedType
	typeOrder     []string
	mergedNames   map[[2]string]string
	subgraphNames map[[2]string]string

	violations []*Violation
}

// Load reads a configuration from SDL text.
func Load(source string) (*Configuration, error) {
	return LoadContext(context.Background(), "", source)
}

// LoadContext reads a configuration from SDL text. name is used in violation positions.
func LoadContext(ctx context.Context, name, source string) (*Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := language.ParseSchema(name, source)
	if err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return LoadDocumentContext(ctx, doc)
}

// LoadDocument reads a configuration from a parsed document.
func LoadDocument(doc *language.SchemaDocument) (*Configuration, error) {
	return LoadDocumentContext(context.Background(), doc)
}

func LoadDocumentContext(ctx context.Context, doc *language.SchemaDocument) (*Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, gen := generation.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.ConfigurationLoadStart{Generation: gen})

	cfg, err := read(doc)
	finish := events.ConfigurationLoadFinish{Generation: gen, Err: err}
	if cfg != nil {
		cfg.generation = gen
		finish.Subgraphs = len(cfg.subgraphs)
		finish.Types = len(cfg.typeOrder)
	}
	finish.Duration = time.Since(start)
	eventbus.Publish(ctx, finish)
	return cfg, err
}

func read(doc *language.SchemaDocument) (*Configuration, error) {
	if doc == nil || len(doc.Schema) == 0 {
		return nil, ErrNoSchemaDefinition
	}
	r := &reader{
		subscriptionType: defaultSubscriptionType,
		knownSubgraphs:   make(map[string]struct{}),
		types:            make(map[string]NamedType),
		mergedNames:      make(map[[2]string]string),
		subgraphNames:    make(map[[2]string]string),
	}

	schemaDef := doc.Schema[0]
	for _, extra := range doc.Schema[1:] {
		r.addViolation(violationMultipleSchemaDefinitions(extra.Position))
	}
	r.names = ResolveDirectiveNames(schemaDef.Directives)
	r.readSchemaDefinition(schemaDef)
	if len(r.violations) > 0 {
		return nil, ValidationError(r.violations)
	}
	if len(r.httpClients) == 0 {
		return nil, ErrNoClients
	}

	for _, def := range doc.Definitions {
		if def.Kind == language.Object {
			r.readObjectType(def)
		}
	}
	if len(r.typeOrder) == 0 && len(r.violations) == 0 {
		return nil, ErrNoTypes
	}
	if len(r.violations) > 0 {
		return nil, ValidationError(r.violations)
	}

	return r.configuration(doc), nil
}

func (r *reader) configuration(doc *language.SchemaDocument) *Configuration {
	entities := make(map[string][]string)
	perSubgraph := make(map[string][]string)
	for _, name := range r.typeOrder {
		obj, ok := r.types[name].(*ObjectType)
		if !ok {
			continue
		}
		for _, subgraph := range obj.resolvers.Subgraphs() {
			entities[name] = append(entities[name], subgraph)
			perSubgraph[subgraph] = append(perSubgraph[subgraph], name)
		}
	}
	infos := make([]SubgraphInfo, 0, len(r.subgraphs))
	for _, subgraph := range r.subgraphs {
		infos = append(infos, SubgraphInfo{Name: subgraph, Entities: perSubgraph[subgraph]})
	}

	return &Configuration{
		document:         doc,
		names:            r.names,
		subgraphs:        r.subgraphs,
		types:            r.types,
		typeOrder:        r.typeOrder,
		httpClients:      r.httpClients,
		webSocketClients: r.webSocketClients,
		mergedNames:      r.mergedNames,
		subgraphNames:    r.subgraphNames,
		entities:         entities,
		subgraphInfos:    infos,
	}
}

func (r *reader) addViolation(v ...*Violation) {
	r.violations = append(r.violations, v...)
}

func (r *reader) addSubgraph(name string) {
	if _, ok := r.knownSubgraphs[name]; ok {
		return
	}
	r.knownSubgraphs[name] = struct{}{}
	r.subgraphs = append(r.subgraphs, name)
}

// checkSubgraph reports whether a client was configured for the subgraph.
func (r *reader) checkSubgraph(dir *language.Directive, subgraph string) bool {
	if _, ok := r.knownSubgraphs[subgraph]; !ok {
		r.addViolation(violationUnknownSubgraph(dir.Name, subgraph, dir.Position))
		return false
	}
	return true
}
