// Package logging turns middleware lifecycle events into zap log entries.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/events"
	"github.com/hanpama/gqlmw/internal/reqid"
)

// New builds a logger writing to stderr. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Register subscribes logger to the lifecycle events on bus.
func Register(bus *eventbus.Bus, logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPFinish) {
			logger.Info("http request",
				requestID(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				requestID(ctx),
				zap.String("operation", e.OperationName),
				zap.String("operation_type", e.OperationType),
				zap.String("outcome", e.Outcome),
				zap.Duration("duration", e.Duration),
			}
			switch e.Outcome {
			case "executed":
				logger.Debug("graphql operation", append(fields, zap.Int("field_errors", len(e.Errors)))...)
			case "server_error":
				logger.Error("graphql operation failed", append(fields, zap.Errors("errors", e.Errors))...)
			default:
				logger.Warn("graphql operation rejected", append(fields, zap.Errors("errors", e.Errors))...)
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) zap.Field {
	id, _ := reqid.FromContext(ctx)
	return zap.Int64("request_id", id)
}
