package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/fusiongraph/internal/eventbus"
	events "github.com/hanpama/fusiongraph/internal/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "fusiongraph"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(otel.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe records configuration load and rewrite events as spans of tracer.
func Subscribe(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type clientKey struct {
	generation uint64
	subgraph   string
	transport  string
}

type subscriber struct {
	tracer      trace.Tracer
	loadSpans   sync.Map // generation -> trace.Span
	rewriteSpan sync.Map // generation -> trace.Span
	clientSpans sync.Map // clientKey -> trace.Span
}

func (s *subscriber) register() func() {
	unsubscribers := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.ConfigurationLoadStart) {
			_, span := s.tracer.Start(ctx, "fusion.configuration.load")
			span.SetAttributes(attribute.Int64("fusion.generation", int64(e.Generation)))
			s.loadSpans.Store(e.Generation, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ConfigurationLoadFinish) {
			v, ok := s.loadSpans.LoadAndDelete(e.Generation)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("fusion.subgraphs", e.Subgraphs),
				attribute.Int("fusion.types", e.Types),
			)
			endSpan(span, e.Err)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.RewriteStart) {
			_, span := s.tracer.Start(ctx, "fusion.rewrite")
			span.SetAttributes(
				attribute.Int64("fusion.generation", int64(e.Generation)),
				attribute.Int("fusion.clients", e.Clients),
			)
			s.rewriteSpan.Store(e.Generation, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.RewriteFinish) {
			v, ok := s.rewriteSpan.LoadAndDelete(e.Generation)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("fusion.clients.changed", e.Changed))
			endSpan(span, e.Err)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ClientRewriteStart) {
			parent := ctx
			if v, ok := s.rewriteSpan.Load(e.Generation); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "fusion.client.rewrite")
			span.SetAttributes(
				attribute.String("fusion.subgraph", e.Subgraph),
				attribute.String("fusion.transport", e.Transport),
			)
			s.clientSpans.Store(clientKey{e.Generation, e.Subgraph, e.Transport}, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.ClientRewriteFinish) {
			v, ok := s.clientSpans.LoadAndDelete(clientKey{e.Generation, e.Subgraph, e.Transport})
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Bool("fusion.client.changed", e.Changed))
			endSpan(span, e.Err)
		}),
	}
	return func() {
		for _, u := range unsubscribers {
			u()
		}
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
