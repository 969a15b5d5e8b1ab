// Package middleware binds a graphql-go schema to an HTTP router. It accepts
// GraphQL requests over GET and POST, answers with JSON, and serves the
// GraphiQL explorer to browsers.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/munnerz/goautoneg"
	"google.golang.org/grpc/metadata"

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/events"
	"github.com/hanpama/gqlmw/explorer"
	"github.com/hanpama/gqlmw/internal/reqid"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html"

	msgInvalidContentType = "Invalid Content-Type header. Only application/json is supported."
	msgMissingQuery       = "Must provide query string."
	msgInvalidVariables   = "Variables are invalid JSON."
	msgInvalidBody        = "POST body sent invalid JSON."
	msgBodyTooLarge       = "Request body too large."
)

var errBodyTooLarge = errors.New("body too large")

// Handler is an http.Handler that serves a GraphQL endpoint for one schema.
type Handler struct {
	schema *graphql.Schema
	opt    Options

	schemaOnce sync.Once
	schemaErrs []gqlerrors.FormattedError

	metadataHeaders map[string]struct{}
}

// New creates a Handler for schema. Resolver overrides from the options are
// installed on the schema here, before any request is served. They are written
// into schema in place and only where no resolver exists yet, so handlers
// sharing a schema share the resolvers of the first New that set them.
func New(schema *graphql.Schema, opts ...Option) (*Handler, error) {
	if schema == nil {
		return nil, errors.New("middleware: schema is required")
	}
	op := defaultOptions()
	for _, f := range opts {
		f(&op)
	}
	if op.Path == "" {
		return nil, errors.New("middleware: path must not be empty")
	}
	installResolvers(schema, op.FieldResolver, op.TypeResolver)

	h := &Handler{schema: schema, opt: op}
	if len(op.MetadataHeaders) > 0 {
		h.metadataHeaders = make(map[string]struct{}, len(op.MetadataHeaders))
		for _, hdr := range op.MetadataHeaders {
			h.metadataHeaders[strings.ToLower(hdr)] = struct{}{}
		}
	}
	return h, nil
}

// Path is the route the handler expects to be mounted on.
func (h *Handler) Path() string { return h.opt.Path }

func installResolvers(schema *graphql.Schema, field graphql.FieldResolveFn, typ graphql.ResolveTypeFn) {
	if field == nil && typ == nil {
		return
	}
	for name, t := range schema.TypeMap() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		switch t := t.(type) {
		case *graphql.Object:
			if field == nil {
				continue
			}
			for _, def := range t.Fields() {
				if def.Resolve == nil {
					def.Resolve = field
				}
			}
		case *graphql.Interface:
			if typ != nil && t.ResolveType == nil {
				t.ResolveType = typ
			}
		case *graphql.Union:
			if typ != nil && t.ResolveType == nil {
				t.ResolveType = typ
			}
		}
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, reqid.ForRequest(r))
	ctx = h.outgoingMetadata(ctx, r, rid)
	r = r.WithContext(ctx)

	start := time.Now()
	eventbus.Publish(ctx, h.opt.Events, events.HTTPStart{Request: r})
	status := h.dispatch(w, r)
	eventbus.Publish(ctx, h.opt.Events, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
}

// outgoingMetadata maps configured headers and the request id into gRPC
// metadata so resolvers calling gRPC backends propagate them.
func (h *Handler) outgoingMetadata(ctx context.Context, r *http.Request, rid int64) context.Context {
	md := metadata.MD{}
	for k, v := range r.Header {
		if _, ok := h.metadataHeaders[strings.ToLower(k)]; ok {
			md[strings.ToLower(k)] = v
		}
	}
	md["graphql-request-id"] = []string{strconv.FormatInt(rid, 10)}
	return metadata.NewOutgoingContext(ctx, md)
}

// dispatch answers r and returns the status code it wrote.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) int {
	switch r.Method {
	case http.MethodPost:
		if r.Header.Get("Content-Type") != contentTypeJSON {
			return h.writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidContentType})
		}
		req, err := readBody(r, h.opt.MaxBodyBytes)
		if errors.Is(err, errBodyTooLarge) {
			return h.writeJSON(w, http.StatusRequestEntityTooLarge, messageBody{Message: msgBodyTooLarge})
		}
		if err != nil {
			return h.writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidBody})
		}
		return h.process(w, r, req)

	case http.MethodGet:
		q := r.URL.Query()
		req := request{Query: q.Get("query"), OperationName: q.Get("operationName")}
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return h.writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidVariables})
			}
		}
		if h.showGraphiQL(r) {
			return h.renderGraphiQL(w, r, req)
		}
		return h.process(w, r, req)

	default:
		return h.writeJSON(w, http.StatusBadRequest, messageBody{Message: fmt.Sprintf("Unsupported method: %s", r.Method)})
	}
}

// showGraphiQL reports whether r should get the explorer page: it must be
// enabled, raw must be absent, and HTML must win content negotiation.
func (h *Handler) showGraphiQL(r *http.Request) bool {
	if !h.opt.GraphiQL || r.URL.Query().Has("raw") {
		return false
	}
	return goautoneg.Negotiate(r.Header.Get("Accept"), []string{contentTypeJSON, contentTypeHTML}) == contentTypeHTML
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request, req request) int {
	if req.Query == "" {
		return h.writeJSON(w, http.StatusBadRequest, messageBody{Message: msgMissingQuery})
	}
	status, body := translate(h.Execute(r, req.Query, req.Variables, req.OperationName))
	return h.writeJSON(w, status, body)
}

func (h *Handler) renderGraphiQL(w http.ResponseWriter, r *http.Request, req request) int {
	var result any
	query := req.Query
	if query == "" {
		query = h.opt.DefaultQuery
	}
	if query != "" {
		_, result = translate(h.Execute(r, query, req.Variables, req.OperationName))
	}
	page, err := explorer.Render(explorer.Params{
		Query:         req.Query,
		DefaultQuery:  h.opt.DefaultQuery,
		Variables:     req.Variables,
		OperationName: req.OperationName,
		Result:        result,
	})
	if err != nil {
		return h.writeJSON(w, http.StatusInternalServerError, errorsBody{Errors: []messageBody{{Message: err.Error()}}})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, page)
	return http.StatusOK
}
