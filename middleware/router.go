package middleware

import (
	"net/http"

	"github.com/graphql-go/graphql"
)

// Router is the part of a host framework the middleware needs: registering a
// handler for one method and path.
type Router interface {
	Handle(method, path string, h http.Handler)
}

// RouterFunc adapts a plain function to Router.
type RouterFunc func(method, path string, h http.Handler)

func (f RouterFunc) Handle(method, path string, h http.Handler) { f(method, path, h) }

// ServeMux adapts a standard library mux, using method-qualified patterns.
func ServeMux(mux *http.ServeMux) Router {
	return RouterFunc(func(method, path string, h http.Handler) {
		mux.Handle(method+" "+path, h)
	})
}

// Apply builds a Handler for schema and registers it on r for GET and POST at
// the configured path.
func Apply(r Router, schema *graphql.Schema, opts ...Option) (*Handler, error) {
	h, err := New(schema, opts...)
	if err != nil {
		return nil, err
	}
	r.Handle(http.MethodGet, h.Path(), h)
	r.Handle(http.MethodPost, h.Path(), h)
	return h, nil
}
