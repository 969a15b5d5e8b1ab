// Package events defines the lifecycle events the middleware publishes on its
// event bus.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the middleware receives a request.
// The publishing context carries the request id.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted once the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
