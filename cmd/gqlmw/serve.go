package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/internal/logging"
	"github.com/hanpama/gqlmw/internal/otel"
	"github.com/hanpama/gqlmw/internal/schema"
	"github.com/hanpama/gqlmw/middleware"
	"github.com/hanpama/gqlmw/router/echorouter"
	"github.com/hanpama/gqlmw/router/ginrouter"
	"github.com/hanpama/gqlmw/router/muxrouter"
	"github.com/hanpama/gqlmw/rules"
)

const (
	routerStdlib  = "stdlib"
	routerEcho    = "echo"
	routerGin     = "gin"
	routerGorilla = "gorilla"
)

func runServe(ctx context.Context, cfg serveConfig) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	bus := eventbus.New()
	logging.Register(bus, logger)
	shutdownOtel, err := otel.Setup(bus, cfg.OtelEndpoint, cfg.OtelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownOtel(context.Background()) }()

	h, err := newServer(cfg, bus)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: h}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening",
		zap.String("addr", cfg.Addr),
		zap.String("path", cfg.Path),
		zap.String("router", cfg.Router),
	)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServer loads the schema and root value named in cfg and mounts the
// middleware on the configured router.
func newServer(cfg serveConfig, bus *eventbus.Bus) (http.Handler, error) {
	loaded, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Build(loaded, schema.ResolveTypename)
	if err != nil {
		return nil, err
	}
	root, err := loadData(cfg.Data)
	if err != nil {
		return nil, err
	}

	opts := []middleware.Option{
		middleware.WithPath(cfg.Path),
		middleware.WithGraphiQL(cfg.GraphiQL),
		middleware.WithDefaultQuery(cfg.DefaultQuery),
		middleware.WithRootValue(root),
		middleware.WithTimeout(cfg.Timeout),
		middleware.WithMaxBodyBytes(cfg.MaxBodyBytes),
		middleware.WithEventBus(bus),
	}
	if !cfg.Introspection {
		opts = append(opts, middleware.WithValidationRules(rules.DisableIntrospection))
	}
	if cfg.Pretty {
		opts = append(opts, middleware.WithPretty())
	}
	if len(cfg.MetadataHeaders) > 0 {
		opts = append(opts, middleware.WithMetadataHeaders(cfg.MetadataHeaders...))
	}

	var (
		h http.Handler
		r middleware.Router
	)
	switch cfg.Router {
	case routerStdlib, "":
		m := http.NewServeMux()
		h, r = m, middleware.ServeMux(m)
	case routerEcho:
		e := echo.New()
		e.HideBanner = true
		h, r = e, echorouter.New(e)
	case routerGin:
		gin.SetMode(gin.ReleaseMode)
		e := gin.New()
		h, r = e, ginrouter.New(e)
	case routerGorilla:
		m := mux.NewRouter()
		h, r = m, muxrouter.New(m)
	default:
		return nil, fmt.Errorf("unknown router %q", cfg.Router)
	}
	if _, err := middleware.Apply(r, &sch, opts...); err != nil {
		return nil, fmt.Errorf("middleware: %w", err)
	}
	return h, nil
}

func loadData(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var root map[string]any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return root, nil
}
