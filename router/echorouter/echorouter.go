// Package echorouter mounts the GraphQL middleware on an echo instance or group.
package echorouter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hanpama/gqlmw/middleware"
)

// Routes is satisfied by *echo.Echo and *echo.Group.
type Routes interface {
	Add(method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

type router struct {
	routes Routes
	mw     []echo.MiddlewareFunc
}

// New adapts routes to middleware.Router. The echo middleware m wraps every
// route registered through it.
func New(routes Routes, m ...echo.MiddlewareFunc) middleware.Router {
	return router{routes: routes, mw: m}
}

func (r router) Handle(method, path string, h http.Handler) {
	r.routes.Add(method, path, echo.WrapHandler(h), r.mw...)
}
