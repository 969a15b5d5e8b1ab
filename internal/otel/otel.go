package otel

import (
	"context"
	"sync"

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

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/events"
	"github.com/hanpama/gqlmw/internal/reqid"
)

const instrumentationName = "github.com/hanpama/gqlmw"

// Setup configures an OTLP/gRPC exporter and attaches span subscribers to
// bus. If endpoint is empty, no telemetry is configured.
func Setup(bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
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

	unsubscribe := Register(bus, tp.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Register subscribes span handlers on bus using tracer. The returned func
// removes them again.
func Register(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // reqid token -> trace.Span
	gqlSpans  sync.Map // reqid token -> trace.Span
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			tok, _ := reqid.Token(ctx)
			_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				semconv.HTTPTargetKey.String(e.Request.URL.Path),
				attribute.Int64("graphql.request_id", rid),
			)
			s.httpSpans.Store(tok, span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPFinish) {
			tok, _ := reqid.Token(ctx)
			v, ok := s.httpSpans.LoadAndDelete(tok)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			if e.Status >= 500 {
				span.SetStatus(codes.Error, "")
			}
			span.End()
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.GraphQLStart) {
			tok, _ := reqid.Token(ctx)
			parent := ctx
			if v, ok := s.httpSpans.Load(tok); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "graphql.operation")
			span.SetAttributes(attribute.String("graphql.operation.name", e.OperationName))
			s.gqlSpans.Store(tok, span)
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.GraphQLFinish) {
			tok, _ := reqid.Token(ctx)
			v, ok := s.gqlSpans.LoadAndDelete(tok)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.String("graphql.operation.type", e.OperationType),
				attribute.String("graphql.outcome", e.Outcome),
				attribute.Int("graphql.error_count", len(e.Errors)),
			)
			if e.Outcome != "executed" {
				for _, err := range e.Errors {
					span.RecordError(err)
				}
				span.SetStatus(codes.Error, e.Outcome)
			}
			span.End()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
