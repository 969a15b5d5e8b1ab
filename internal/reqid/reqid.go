// Package reqid tags each request handled by the middleware with an id used to
// correlate lifecycle events.
package reqid

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
)

// Header is the request header an upstream proxy can use to supply the id.
const Header = "X-Request-Id"

type key struct{}

// entry is allocated once per WithID call. Its address tells apart requests
// that were handed the same id.
type entry struct{ id int64 }

// NewContext returns a copy of parent carrying a fresh random id.
func NewContext(parent context.Context) (context.Context, int64) {
	return WithID(parent, newID())
}

// ForRequest returns the id found in r's X-Request-Id header, or a fresh one
// when the header is missing or not a positive integer.
func ForRequest(r *http.Request) int64 {
	if v := r.Header.Get(Header); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return newID()
}

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id int64) (context.Context, int64) {
	return context.WithValue(parent, key{}, &entry{id: id}), id
}

// FromContext extracts the request id from ctx.
func FromContext(ctx context.Context) (int64, bool) {
	e, ok := ctx.Value(key{}).(*entry)
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Token returns a comparable value unique to the WithID call that tagged ctx.
// Unlike the id, which a client may choose through Header, two requests never
// share a token.
func Token(ctx context.Context) (any, bool) {
	e, ok := ctx.Value(key{}).(*entry)
	return e, ok
}

func newID() int64 {
	// zero is reserved for "no id"
	return rand.Int64N(1<<63-1) + 1
}
