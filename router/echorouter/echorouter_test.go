package echorouter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlmw/middleware"
)

func helloSchema(t *testing.T) *graphql.Schema {
	t.Helper()
	s, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{"hello": &graphql.Field{
				Type:    graphql.String,
				Resolve: func(graphql.ResolveParams) (any, error) { return "Hello World!", nil },
			}},
		}),
	})
	require.NoError(t, err)
	return &s
}

func TestEcho(t *testing.T) {
	e := echo.New()
	tagged := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-Mounted", "echo")
			return next(c)
		}
	}
	_, err := middleware.Apply(New(e, tagged), helloSchema(t))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?query={hello}", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "echo", w.Header().Get("X-Mounted"))
	require.JSONEq(t, `{"data":{"hello":"Hello World!"}}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{hello}"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"Hello World!"}}`, w.Body.String())
}

func TestEchoGroup(t *testing.T) {
	e := echo.New()
	_, err := middleware.Apply(New(e.Group("/api")), helloSchema(t), middleware.WithPath("/gql"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gql?query={hello}", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
