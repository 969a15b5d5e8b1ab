// Package ginrouter mounts the GraphQL middleware on a gin engine or group.
package ginrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanpama/gqlmw/middleware"
)

type router struct{ routes gin.IRoutes }

// New adapts routes to middleware.Router.
func New(routes gin.IRoutes) middleware.Router { return router{routes: routes} }

func (r router) Handle(method, path string, h http.Handler) {
	r.routes.Handle(method, path, gin.WrapH(h))
}
