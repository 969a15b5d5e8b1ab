package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/rules"
)

func captureConfig(t *testing.T, args ...string) (serveConfig, error) {
	t.Helper()
	var got serveConfig
	cmd := newRootCmd(func(ctx context.Context, cfg serveConfig) error {
		got = cfg
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	err := cmd.Execute()
	return got, err
}

func TestServeDefaults(t *testing.T) {
	cfg, err := captureConfig(t, "serve", "--schema", "testdata/schema.graphql")
	require.NoError(t, err)
	require.Equal(t, "testdata/schema.graphql", cfg.Schema)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "/graphql", cfg.Path)
	require.Equal(t, routerStdlib, cfg.Router)
	require.True(t, cfg.GraphiQL)
	require.True(t, cfg.Introspection)
	require.False(t, cfg.Pretty)
	require.Zero(t, cfg.Timeout)
	require.Zero(t, cfg.MaxBodyBytes)
	require.Empty(t, cfg.MetadataHeaders)
	require.Empty(t, cfg.OtelEndpoint)
	require.Equal(t, "gqlmw", cfg.OtelService)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestServeFlagsEnvAndConfig(t *testing.T) {
	t.Setenv("GQLMW_OTEL_ENDPOINT", "collector:4317")
	t.Setenv("GQLMW_PRETTY", "true")

	cfg, err := captureConfig(t, "serve",
		"--schema", "testdata/schema.graphql",
		"--config", "testdata/config.yaml",
		"--router", "echo",
		"--metadata-header", "X-A",
		"--metadata-header", "X-B",
		"--timeout", "3s",
	)
	require.NoError(t, err)
	require.Equal(t, "/api/graphql", cfg.Path)
	require.Equal(t, "echo", cfg.Router)
	require.Equal(t, "from-config", cfg.OtelService)
	require.Equal(t, "collector:4317", cfg.OtelEndpoint)
	require.True(t, cfg.Pretty)
	require.Equal(t, []string{"X-A", "X-B"}, cfg.MetadataHeaders)
	require.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestServeRequiresSchema(t *testing.T) {
	_, err := captureConfig(t, "serve")
	require.ErrorContains(t, err, "--schema is required")
}

func testConfig(router string) serveConfig {
	return serveConfig{
		Schema:        "testdata/schema.graphql",
		Data:          "testdata/data.json",
		Path:          "/graphql",
		Router:        router,
		GraphiQL:      true,
		Introspection: true,
		Timeout:       time.Second,
	}
}

func TestNewServerRouters(t *testing.T) {
	for _, router := range []string{routerStdlib, routerEcho, routerGin, routerGorilla} {
		t.Run(router, func(t *testing.T) {
			h, err := newServer(testConfig(router), eventbus.New())
			require.NoError(t, err)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?query={hello}", nil))
			require.Equal(t, http.StatusOK, w.Code)
			require.JSONEq(t, `{"data":{"hello":"Hello World!"}}`, w.Body.String())

			req := httptest.NewRequest(http.MethodPost, "/graphql",
				strings.NewReader(`{"query":"{ viewer { name } nodes { id ... on User { name } } }"}`))
			req.Header.Set("Content-Type", "application/json")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
			require.JSONEq(t, `{"data":{"viewer":{"name":"Daenerys"},"nodes":[{"id":"u1","name":"Daenerys"}]}}`, w.Body.String())

			w = httptest.NewRecorder()
			req = httptest.NewRequest(http.MethodGet, "/graphql", nil)
			req.Header.Set("Accept", "text/html")
			h.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
			require.Contains(t, w.Body.String(), "React.createElement(GraphiQL")
		})
	}
}

func TestNewServerIntrospectionSwitch(t *testing.T) {
	cfg := testConfig(routerStdlib)
	query := "/graphql?query={__schema{queryType{name}}}"

	h, err := newServer(cfg, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, query, nil))
	require.Equal(t, http.StatusOK, w.Code)

	cfg.Introspection = false
	h, err = newServer(cfg, nil)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, query, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), rules.IntrospectionDisabledMessage)
}

func TestNewServerErrors(t *testing.T) {
	cfg := testConfig("caddy")
	_, err := newServer(cfg, nil)
	require.ErrorContains(t, err, `unknown router "caddy"`)

	cfg = testConfig(routerStdlib)
	cfg.Schema = "testdata/missing.graphql"
	_, err = newServer(cfg, nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	cfg = testConfig(routerStdlib)
	cfg.Data = bad
	_, err = newServer(cfg, nil)
	require.ErrorContains(t, err, "parse data")
}

func TestPrint(t *testing.T) {
	cmd := newRootCmd(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"print", "--schema", "testdata/schema.graphql"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "interface Node")
	require.Contains(t, out.String(), "type User implements Node")

	file := filepath.Join(t.TempDir(), "out.graphql")
	cmd = newRootCmd(nil)
	cmd.SetArgs([]string{"print", "--schema", "testdata/schema.graphql", "--out", file})
	require.NoError(t, cmd.Execute())
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, out.String(), string(b))
}
