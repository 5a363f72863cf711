package rewriter

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	eventbus "github.com/hanpama/fusiongraph/internal/eventbus"
	events "github.com/hanpama/fusiongraph/internal/events"
	fusion "github.com/hanpama/fusiongraph/internal/fusion"
	language "github.com/hanpama/fusiongraph/internal/language"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	subgraphArg    = "subgraph"
	clientNameArg  = "clientName"
	baseAddressArg = "baseAddress"
)

// job is one client to rewrite. result is the rebuilt directive, nil when unchanged.
type job struct {
	transport Transport
	subgraph  string
	original  *language.Directive
	rewrite   func(context.Context) (clientName, baseAddress string, changed bool, err error)
	result    *language.Directive
}

// RewriteSource rewrites the clients of a configuration given as SDL text and
// returns the rewritten document as SDL.
func RewriteSource(ctx context.Context, name, source string, cr ClientRewriter, opts ...Option) (string, error) {
	doc, err := language.ParseSchema(name, source)
	if err != nil {
		return "", fmt.Errorf("parse configuration: %w", err)
	}
	out, err := Rewrite(ctx, doc, cr, opts...)
	if err != nil {
		return "", err
	}
	return language.FormatSchema(out), nil
}

// Rewrite loads doc, passes every HTTP and WebSocket client through cr and
// returns a document in which the directives of changed clients are replaced.
// doc itself is never modified. When nothing changed, doc is returned.
func Rewrite(ctx context.Context, doc *language.SchemaDocument, cr ClientRewriter, opts ...Option) (*language.SchemaDocument, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := fusion.LoadDocumentContext(ctx, doc)
	if err != nil {
		return nil, err
	}
	jobs := clientJobs(cfg, cr)
	log := o.Logger.With(zap.Uint64("generation", cfg.Generation()))

	start := time.Now()
	eventbus.Publish(ctx, events.RewriteStart{Generation: cfg.Generation(), Clients: len(jobs)})

	if o.Concurrency > 1 {
		err = runParallel(ctx, cfg.Generation(), jobs, o.Concurrency, log)
	} else {
		err = runSequential(ctx, cfg.Generation(), jobs, log)
	}

	var out *language.SchemaDocument
	changed := 0
	if err == nil {
		out, changed = splice(doc, jobs)
	}
	eventbus.Publish(ctx, events.RewriteFinish{
		Generation: cfg.Generation(),
		Changed:    changed,
		Err:        err,
		Duration:   time.Since(start),
	})
	if err != nil {
		log.Error("configuration rewrite failed", zap.Error(err))
		return nil, err
	}
	log.Info("configuration rewritten",
		zap.Int("clients", len(jobs)),
		zap.Int("changed", changed),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

func clientJobs(cfg *fusion.Configuration, cr ClientRewriter) []*job {
	var jobs []*job
	for _, c := range cfg.HTTPClients() {
		jobs = append(jobs, &job{
			transport: TransportHTTP,
			subgraph:  c.Subgraph,
			original:  c.Directive,
			rewrite: func(ctx context.Context) (string, string, bool, error) {
				oldAddress := addressString(c.BaseAddress)
				in := *c
				in.BaseAddress = cloneURL(c.BaseAddress)
				out, err := cr.RewriteHTTPClient(ctx, &in)
				if err != nil || out == nil {
					return "", "", false, err
				}
				return diffClient(c.ClientName, oldAddress, out.ClientName, addressString(out.BaseAddress))
			},
		})
	}
	for _, c := range cfg.WebSocketClients() {
		jobs = append(jobs, &job{
			transport: TransportWebSocket,
			subgraph:  c.Subgraph,
			original:  c.Directive,
			rewrite: func(ctx context.Context) (string, string, bool, error) {
				oldAddress := addressString(c.BaseAddress)
				in := *c
				in.BaseAddress = cloneURL(c.BaseAddress)
				out, err := cr.RewriteWebSocketClient(ctx, &in)
				if err != nil || out == nil {
					return "", "", false, err
				}
				return diffClient(c.ClientName, oldAddress, out.ClientName, addressString(out.BaseAddress))
			},
		})
	}
	return jobs
}

func diffClient(oldName, oldAddress, newName, newAddress string) (string, string, bool, error) {
	if newName == "" {
		newName = oldName
	}
	if newAddress == "" {
		newAddress = oldAddress
	}
	return newName, newAddress, newName != oldName || newAddress != oldAddress, nil
}

// cloneURL copies u so a rewriter can edit the address in place without
// touching the loaded configuration.
func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func addressString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func runSequential(ctx context.Context, gen uint64, jobs []*job, log *zap.Logger) error {
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.run(ctx, gen, log); err != nil {
			return err
		}
	}
	return nil
}

func runParallel(ctx context.Context, gen uint64, jobs []*job, limit int, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return j.run(gctx, gen, log)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// errgroup cancels gctx only on failure; surface a cancellation of the parent.
	return ctx.Err()
}

func (j *job) run(ctx context.Context, gen uint64, log *zap.Logger) error {
	start := time.Now()
	eventbus.Publish(ctx, events.ClientRewriteStart{Generation: gen, Subgraph: j.subgraph, Transport: string(j.transport)})

	clientName, baseAddress, changed, err := j.rewrite(ctx)
	if err != nil {
		err = fmt.Errorf("rewrite %s client %q: %w", j.transport, j.subgraph, err)
	} else if changed {
		j.result = rebuildDirective(j.original, clientName, baseAddress)
	}

	eventbus.Publish(ctx, events.ClientRewriteFinish{
		Generation: gen,
		Subgraph:   j.subgraph,
		Transport:  string(j.transport),
		Changed:    changed,
		Err:        err,
		Duration:   time.Since(start),
	})
	log.Debug("client rewritten",
		zap.String("subgraph", j.subgraph),
		zap.String("transport", string(j.transport)),
		zap.Bool("changed", changed),
		zap.Error(err))
	return err
}

// rebuildDirective returns a copy of dir with updated clientName and baseAddress arguments.
// clientName is only written when the directive carries it or it differs from the subgraph.
func rebuildDirective(dir *language.Directive, clientName, baseAddress string) *language.Directive {
	out := *dir
	out.Arguments = make(language.ArgumentList, 0, len(dir.Arguments)+1)

	var subgraph string
	hasClientName := false
	for _, arg := range dir.Arguments {
		a := *arg
		switch arg.Name {
		case subgraphArg:
			subgraph = arg.Value.Raw
		case clientNameArg:
			hasClientName = true
			a.Value = stringValue(clientName, arg.Value)
		case baseAddressArg:
			a.Value = stringValue(baseAddress, arg.Value)
		}
		out.Arguments = append(out.Arguments, &a)
	}
	if !hasClientName && clientName != subgraph {
		out.Arguments = append(out.Arguments, &language.Argument{
			Name:     clientNameArg,
			Value:    &language.Value{Kind: language.StringValue, Raw: clientName, Position: dir.Position},
			Position: dir.Position,
		})
	}
	return &out
}

func stringValue(raw string, old *language.Value) *language.Value {
	return &language.Value{Kind: language.StringValue, Raw: raw, Position: old.Position}
}

// splice copies the schema definition holding the client directives and
// replaces the rebuilt ones. Only the nodes on the path to a change are copied.
func splice(doc *language.SchemaDocument, jobs []*job) (*language.SchemaDocument, int) {
	replaced := make(map[*language.Directive]*language.Directive)
	for _, j := range jobs {
		if j.result != nil {
			replaced[j.original] = j.result
		}
	}
	if len(replaced) == 0 {
		return doc, 0
	}

	out := *doc
	out.Schema = slices.Clone(doc.Schema)
	def := *doc.Schema[0]
	def.Directives = slices.Clone(def.Directives)
	for i, dir := range def.Directives {
		if r, ok := replaced[dir]; ok {
			def.Directives[i] = r
		}
	}
	out.Schema[0] = &def
	return &out, len(replaced)
}
