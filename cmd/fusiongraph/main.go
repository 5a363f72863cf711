package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/fusiongraph/internal/config"
	"github.com/hanpama/fusiongraph/internal/eventbus"
	"github.com/hanpama/fusiongraph/internal/fusion"
	"github.com/hanpama/fusiongraph/internal/language"
	"github.com/hanpama/fusiongraph/internal/otel"
	"github.com/hanpama/fusiongraph/internal/rewriter"
)

const rootUsage = `fusiongraph — fusion gateway configuration tools

USAGE:
  fusiongraph [global flags] <command> [flags]

GLOBAL FLAGS:
  -log.level <level>       debug, info, warn or error (default: info)
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: fusiongraph)

COMMANDS:
  inspect          Load a configuration and print its subgraphs, clients and types
  select           Build the subgraph selection of a fetch
  rewrite          Rewrite subgraph client addresses
  help             Show help for any command
`

const inspectUsage = `inspect FLAGS:
  -config <file>           Fusion configuration document (required)
`

const selectUsage = `select FLAGS:
  -config <file>           Fusion configuration document (required)
  -type <name>             Type holding the fetch (required)
  -field <name>            Field holding the fetch (default: type-level fetch)
  -subgraph <name>         Subgraph to fetch from (required)
  -kind <kind>             FETCH, BATCH or SUBSCRIBE (default: first fetch of the subgraph)
  -var <name=literal>      Variable value as a GraphQL literal. Repeatable
  -selection <set>         Selection to splice at the placeholder, e.g. "{ id name }"
  -as <name>               Response name of the fetched field
  -unspecified <arg>       Argument omitted by the operation. Repeatable
`

const rewriteUsage = `rewrite FLAGS:
  -config <file>               Fusion configuration document (required)
  -endpoints <file>            YAML endpoint mapping
  -endpoint <subgraph=url>     HTTP address of a subgraph. Repeatable; overrides -endpoints
  -ws-endpoint <subgraph=url>  WebSocket address of a subgraph. Repeatable; overrides -endpoints
  -concurrency N               Client rewrites running at once (default: 1)
  -out <file>                  Write rewritten SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	logLevel := "info"
	otelEndpoint := ""
	otelService := "fusiongraph"

	global := flag.NewFlagSet("fusiongraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	global.StringVar(&logLevel, "log.level", logLevel, "Log level")
	global.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	global.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := global.Parse(args); err != nil {
		// print usage on parse error
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	if cmd == "help" {
		return cmdHelp(cmdArgs)
	}

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case "inspect":
		return cmdInspect(ctx, cmdArgs, logger)
	case "select":
		return cmdSelect(ctx, cmdArgs, logger)
	case "rewrite":
		return cmdRewrite(ctx, cmdArgs, logger)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "inspect":
		fmt.Print(inspectUsage)
	case "select":
		fmt.Print(selectUsage)
	case "rewrite":
		fmt.Print(rewriteUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid -log.level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// pairFlag collects repeated name=value flags.
type pairFlag struct {
	m     map[string]string
	order []string
}

func (p *pairFlag) String() string { return "" }

func (p *pairFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid pair %q", v)
	}
	name := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if name == "" || value == "" {
		return fmt.Errorf("invalid pair %q", v)
	}
	if p.m == nil {
		p.m = map[string]string{}
	}
	if _, ok := p.m[name]; !ok {
		p.order = append(p.order, name)
	}
	p.m[name] = value
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func loadConfiguration(ctx context.Context, path string, logger *zap.Logger) (*fusion.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	cfg, err := fusion.LoadContext(ctx, path, string(data))
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("path", path),
		zap.Uint64("generation", cfg.Generation()),
		zap.Strings("subgraphs", cfg.SubgraphNames()))
	return cfg, nil
}

func cmdInspect(ctx context.Context, args []string, logger *zap.Logger) error {
	configFile := ""
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "Fusion configuration document")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, inspectUsage)
		return err
	}
	if configFile == "" {
		fmt.Fprint(os.Stderr, inspectUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := loadConfiguration(ctx, configFile, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBGRAPH\tTRANSPORT\tCLIENT\tADDRESS\tENTITIES")
	for _, info := range cfg.Subgraphs() {
		entities := strings.Join(info.Entities, ",")
		if c, ok := cfg.TryGetHTTPClient(info.Name); ok {
			fmt.Fprintf(w, "%s\thttp\t%s\t%s\t%s\n", info.Name, c.ClientName, c.BaseAddress, entities)
		}
		if c, ok := cfg.TryGetWebSocketClient(info.Name); ok {
			fmt.Fprintf(w, "%s\twebsocket\t%s\t%s\t%s\n", info.Name, c.ClientName, c.BaseAddress, entities)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MEMBER\tBINDINGS\tRESOLVERS\tVARIABLES")
	for _, name := range cfg.TypeNames() {
		obj, err := fusion.GetType[*fusion.ObjectType](cfg, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name,
			formatBindings(obj.Bindings()), formatResolvers(obj.Resolvers()), formatVariables(obj.Variables()))
		for _, field := range obj.Fields().All() {
			if field.Flags().Has(fusion.FieldFlagTypeName) {
				continue
			}
			fmt.Fprintf(w, "%s.%s\t%s\t%s\t%s\n", name, field.Name(),
				formatBindings(field.Bindings()), formatResolvers(field.Resolvers()), formatVariables(field.Variables()))
		}
	}
	return w.Flush()
}

func formatBindings(c fusion.MemberBindingCollection) string {
	parts := make([]string, 0, c.Len())
	for _, b := range c.All() {
		parts = append(parts, b.Subgraph+":"+b.Name)
	}
	return orDash(parts)
}

func formatResolvers(c fusion.ResolverDefinitionCollection) string {
	var parts []string
	for _, r := range c.All() {
		parts = append(parts, r.Subgraph()+":"+r.Kind().String())
	}
	return orDash(parts)
}

func formatVariables(c fusion.VariableDefinitionCollection) string {
	parts := make([]string, 0, c.Len())
	for _, v := range c.All() {
		parts = append(parts, "$"+v.Name+":"+v.Type.String())
	}
	return orDash(parts)
}

func orDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func cmdSelect(ctx context.Context, args []string, logger *zap.Logger) error {
	configFile := ""
	typeName := ""
	fieldName := ""
	subgraph := ""
	kind := ""
	selection := ""
	responseName := ""
	var vars pairFlag
	var unspecified stringListFlag

	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "Fusion configuration document")
	fs.StringVar(&typeName, "type", typeName, "Type holding the fetch")
	fs.StringVar(&fieldName, "field", fieldName, "Field holding the fetch")
	fs.StringVar(&subgraph, "subgraph", subgraph, "Subgraph to fetch from")
	fs.StringVar(&kind, "kind", kind, "Fetch kind")
	fs.Var(&vars, "var", "Variable value")
	fs.StringVar(&selection, "selection", selection, "Selection to splice at the placeholder")
	fs.StringVar(&responseName, "as", responseName, "Response name of the fetched field")
	fs.Var(&unspecified, "unspecified", "Argument omitted by the operation")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, selectUsage)
		return err
	}
	if configFile == "" || typeName == "" || subgraph == "" {
		fmt.Fprint(os.Stderr, selectUsage)
		return fmt.Errorf("-config, -type and -subgraph are required")
	}

	cfg, err := loadConfiguration(ctx, configFile, logger)
	if err != nil {
		return err
	}
	resolver, err := findResolver(cfg, typeName, fieldName, subgraph, kind)
	if err != nil {
		return err
	}

	variables := make(map[string]*language.Value, len(vars.order))
	for _, name := range vars.order {
		v, err := language.ParseValue(vars.m[name])
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		variables[name] = v
	}
	for _, name := range resolver.Requires() {
		if _, ok := variables[name]; !ok {
			logger.Warn("variable left unbound", zap.String("variable", name))
		}
	}

	var requested language.SelectionSet
	if selection != "" {
		if requested, err = language.ParseSelectionSet(selection); err != nil {
			return fmt.Errorf("parse -selection: %w", err)
		}
	}

	set, path, err := resolver.CreateSelection(variables, requested, responseName,
		fusion.WithUnspecifiedArguments(unspecified...))
	if err != nil {
		return err
	}
	fmt.Print(language.FormatSelectionSet(set))
	fmt.Printf("path: %s\n", strings.Join(path, "."))
	return nil
}

func findResolver(cfg *fusion.Configuration, typeName, fieldName, subgraph, kind string) (*fusion.ResolverDefinition, error) {
	obj, err := fusion.GetType[*fusion.ObjectType](cfg, typeName)
	if err != nil {
		return nil, err
	}
	member := typeName
	resolvers := obj.Resolvers()
	if fieldName != "" {
		field, ok := obj.Fields().Get(fieldName)
		if !ok {
			return nil, fmt.Errorf("field %s.%s not found", typeName, fieldName)
		}
		member += "." + fieldName
		resolvers = field.Resolvers()
	}

	candidates, ok := resolvers.TryGetResolvers(subgraph)
	if !ok {
		return nil, fmt.Errorf("%s has no fetch for subgraph %q", member, subgraph)
	}
	if kind == "" {
		return candidates[0], nil
	}
	for _, r := range candidates {
		if r.Kind().String() == strings.ToUpper(kind) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s has no %s fetch for subgraph %q", member, strings.ToUpper(kind), subgraph)
}

func cmdRewrite(ctx context.Context, args []string, logger *zap.Logger) error {
	configFile := ""
	endpointsFile := ""
	outFile := ""
	concurrency := 1
	var httpEndpoints, wsEndpoints pairFlag

	fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configFile, "config", configFile, "Fusion configuration document")
	fs.StringVar(&endpointsFile, "endpoints", endpointsFile, "YAML endpoint mapping")
	fs.Var(&httpEndpoints, "endpoint", "HTTP address of a subgraph")
	fs.Var(&wsEndpoints, "ws-endpoint", "WebSocket address of a subgraph")
	fs.IntVar(&concurrency, "concurrency", concurrency, "Client rewrites running at once")
	fs.StringVar(&outFile, "out", outFile, "Write rewritten SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rewriteUsage)
		return err
	}
	if configFile == "" {
		fmt.Fprint(os.Stderr, rewriteUsage)
		return fmt.Errorf("-config is required")
	}

	endpoints := &config.Endpoints{}
	if endpointsFile != "" {
		var err error
		if endpoints, err = config.LoadEndpoints(endpointsFile); err != nil {
			return err
		}
	}
	for _, name := range httpEndpoints.order {
		if err := endpoints.Set(name, rewriter.TransportHTTP, httpEndpoints.m[name]); err != nil {
			return err
		}
	}
	for _, name := range wsEndpoints.order {
		if err := endpoints.Set(name, rewriter.TransportWebSocket, wsEndpoints.m[name]); err != nil {
			return err
		}
	}
	if err := endpoints.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("read configuration: %w", err)
	}
	sdl, err := rewriter.RewriteSource(ctx, configFile, string(data),
		rewriter.NewEndpointRewriter(endpoints.Provider()),
		rewriter.WithConcurrency(concurrency),
		rewriter.WithLogger(logger))
	if err != nil {
		return err
	}

	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(sdl), 0644); err != nil {
		return err
	}
	logger.Info("configuration written", zap.String("path", outFile))
	return nil
}
