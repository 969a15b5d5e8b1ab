package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/source"

	"github.com/hanpama/gqlmw/eventbus"
	"github.com/hanpama/gqlmw/events"
)

// OutcomeKind tags which of the exclusive result shapes an Outcome holds.
type OutcomeKind int

const (
	// OutcomeExecuted means the operation ran; Data and FieldErrors are set.
	OutcomeExecuted OutcomeKind = iota
	// OutcomeSchemaInvalid means the schema failed validation; Errors is set.
	OutcomeSchemaInvalid
	// OutcomeDocumentInvalid means the query did not parse or validate; Errors is set.
	OutcomeDocumentInvalid
	// OutcomeServerError means resolving the context value failed; Err is set.
	OutcomeServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExecuted:
		return "executed"
	case OutcomeSchemaInvalid:
		return "schema_invalid"
	case OutcomeDocumentInvalid:
		return "document_invalid"
	case OutcomeServerError:
		return "server_error"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the result of running one query through the pipeline.
type Outcome struct {
	Kind OutcomeKind

	// Errors holds schema or document violations, or the raw field errors
	// of an executed operation.
	Errors []gqlerrors.FormattedError
	Err    error

	Data        any
	FieldErrors []any // already passed through the error formatter
}

// ValidateSchema is the default SchemaValidateFunc. Schemas built with
// graphql.NewSchema are checked on construction; this catches zero values and
// schemas whose construction error was ignored.
func ValidateSchema(schema *graphql.Schema) []gqlerrors.FormattedError {
	if schema == nil || schema.QueryType() == nil {
		return []gqlerrors.FormattedError{gqlerrors.NewFormattedError("Query root type must be provided.")}
	}
	typeMap := schema.TypeMap()
	names := make([]string, 0, len(typeMap))
	for name := range typeMap {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []gqlerrors.FormattedError
	for _, name := range names {
		t := typeMap[name]
		if err := t.Error(); err != nil {
			errs = append(errs, gqlerrors.FormatError(err))
			continue
		}
		if obj, ok := t.(*graphql.Object); ok && !strings.HasPrefix(name, "__") && len(obj.Fields()) == 0 {
			errs = append(errs, gqlerrors.NewFormattedError(fmt.Sprintf("Type %s must define one or more fields.", name)))
		}
	}
	return errs
}

type contextValueKey struct{}

// ContextValue returns the value configured with WithContext or produced by
// the ContextFunc for the current request. Resolvers call it with
// graphql.ResolveParams.Context.
func ContextValue(ctx context.Context) any {
	return ctx.Value(contextValueKey{})
}

func (h *Handler) schemaErrors() []gqlerrors.FormattedError {
	h.schemaOnce.Do(func() {
		h.schemaErrs = h.opt.ValidateSchemaFn(h.schema)
	})
	return h.schemaErrs
}

func (h *Handler) resolveContext(r *http.Request) (v any, err error) {
	if h.opt.ContextFunc == nil {
		if h.opt.Context != nil {
			return h.opt.Context, nil
		}
		return r, nil
	}
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", p)
			}
		}
	}()
	return h.opt.ContextFunc(r)
}

// Execute runs query through schema validation, parsing, document validation,
// context resolution and execution, stopping at the first failure class.
// The request context of r is passed to resolvers.
func (h *Handler) Execute(r *http.Request, query string, variables map[string]any, operationName string) Outcome {
	ctx := r.Context()
	start := time.Now()
	eventbus.Publish(ctx, h.opt.Events, events.GraphQLStart{Query: query, OperationName: operationName})

	out, doc := h.execute(r, query, variables, operationName)

	fin := events.GraphQLFinish{
		Query:         query,
		OperationName: operationName,
		OperationType: operationType(doc, operationName),
		Outcome:       out.Kind.String(),
		Duration:      time.Since(start),
	}
	switch out.Kind {
	case OutcomeServerError:
		fin.Errors = []error{out.Err}
	default:
		for _, e := range out.Errors {
			fin.Errors = append(fin.Errors, e)
		}
	}
	eventbus.Publish(ctx, h.opt.Events, fin)
	return out
}

func (h *Handler) execute(r *http.Request, query string, variables map[string]any, operationName string) (Outcome, *ast.Document) {
	if errs := h.schemaErrors(); len(errs) > 0 {
		return Outcome{Kind: OutcomeSchemaInvalid, Errors: errs}, nil
	}

	doc, err := h.opt.ParseFn(source.NewSource(&source.Source{Body: []byte(query), Name: "GraphQL request"}))
	if err != nil {
		return Outcome{Kind: OutcomeDocumentInvalid, Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)}}, nil
	}

	rules := make([]graphql.ValidationRuleFn, 0, len(graphql.SpecifiedRules)+len(h.opt.ValidationRules))
	rules = append(rules, graphql.SpecifiedRules...)
	rules = append(rules, h.opt.ValidationRules...)
	if errs := h.opt.ValidateFn(h.schema, doc, rules); len(errs) > 0 {
		return Outcome{Kind: OutcomeDocumentInvalid, Errors: errs}, doc
	}

	cv, err := h.resolveContext(r)
	if err != nil {
		return Outcome{Kind: OutcomeServerError, Err: err}, doc
	}

	res := h.opt.ExecuteFn(ExecutionArgs{
		Schema:         h.schema,
		Document:       doc,
		RootValue:      h.opt.RootValue,
		Context:        context.WithValue(r.Context(), contextValueKey{}, cv),
		ContextValue:   cv,
		VariableValues: variables,
		OperationName:  operationName,
		FieldResolver:  h.opt.FieldResolver,
		TypeResolver:   h.opt.TypeResolver,
	})
	out := Outcome{Kind: OutcomeExecuted}
	if res == nil {
		return out, doc
	}
	out.Data = res.Data
	out.Errors = res.Errors
	for _, e := range res.Errors {
		out.FieldErrors = append(out.FieldErrors, h.opt.FormatErrorFn(e))
	}
	return out, doc
}

// operationType names the kind of the operation that operationName selects,
// or of the only operation when the name is empty.
func operationType(doc *ast.Document, operationName string) string {
	if doc == nil {
		return ""
	}
	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName == "" {
			if found != nil {
				return ""
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == operationName {
			return op.Operation
		}
	}
	if found == nil {
		return ""
	}
	return found.Operation
}
