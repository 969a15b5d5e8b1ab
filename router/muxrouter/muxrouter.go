// Package muxrouter mounts the GraphQL middleware on a gorilla/mux router.
package muxrouter

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hanpama/gqlmw/middleware"
)

type router struct{ r *mux.Router }

// New adapts r to middleware.Router. Each route is restricted to its method,
// so other methods on the same path fall through to r's 405 handling.
func New(r *mux.Router) middleware.Router { return router{r: r} }

func (m router) Handle(method, path string, h http.Handler) {
	m.r.Handle(path, h).Methods(method)
}
