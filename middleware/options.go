package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"github.com/hanpama/gqlmw/eventbus"
)

// ContextFunc derives the value handed to resolvers from the incoming request.
// A returned error is reported to the client as a server error.
type ContextFunc func(r *http.Request) (any, error)

// SchemaValidateFunc checks the schema itself. It runs once per Handler.
type SchemaValidateFunc func(schema *graphql.Schema) []gqlerrors.FormattedError

// ParseFunc turns query source text into a document.
type ParseFunc func(src *source.Source) (*ast.Document, error)

// ValidateFunc checks a document against the schema with the given rules.
type ValidateFunc func(schema *graphql.Schema, doc *ast.Document, rules []graphql.ValidationRuleFn) []gqlerrors.FormattedError

// ExecuteFunc runs a validated document.
type ExecuteFunc func(args ExecutionArgs) *graphql.Result

// FormatErrorFunc shapes a single field error for the response.
type FormatErrorFunc func(err gqlerrors.FormattedError) any

// ExecutionArgs is everything an ExecuteFunc needs to run one operation.
type ExecutionArgs struct {
	Schema         *graphql.Schema
	Document       *ast.Document
	RootValue      any
	Context        context.Context // carries the context value, see ContextValue
	ContextValue   any
	VariableValues map[string]any
	OperationName  string
	FieldResolver  graphql.FieldResolveFn
	TypeResolver   graphql.ResolveTypeFn
}

// Options configure a Handler. They are fixed once New returns and shared by
// every request.
type Options struct {
	// Path is the route registered by Apply.
	Path string

	// GraphiQL serves the explorer page to browsers asking for HTML.
	GraphiQL bool
	// DefaultQuery is shown and executed by the explorer when the request
	// carries no query.
	DefaultQuery string

	RootValue any

	// Context is a static value for resolvers. ContextFunc, when set, takes
	// precedence and is called once per request. With neither set resolvers
	// get the *http.Request.
	Context     any
	ContextFunc ContextFunc

	// FieldResolver is installed on every object field that has no resolver.
	// The schema itself is modified, so a later New on the same schema keeps
	// the resolver installed first.
	FieldResolver graphql.FieldResolveFn
	// TypeResolver is installed on every interface and union that has none,
	// with the same first-wins rule as FieldResolver.
	TypeResolver graphql.ResolveTypeFn

	// ValidationRules run in addition to graphql.SpecifiedRules.
	ValidationRules []graphql.ValidationRuleFn

	ValidateSchemaFn SchemaValidateFunc
	ParseFn          ParseFunc
	ValidateFn       ValidateFunc
	ExecuteFn        ExecuteFunc
	FormatErrorFn    FormatErrorFunc

	// Timeout sets a timeout if the incoming request context has none.
	// 0, the default, means no timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// MetadataHeaders lists HTTP headers to forward into outgoing gRPC
	// metadata on the resolver context. Header names are case-insensitive.
	MetadataHeaders []string

	// Events receives request lifecycle events. nil disables publishing.
	Events *eventbus.Bus
}

type Option func(*Options)

func WithPath(path string) Option                        { return func(o *Options) { o.Path = path } }
func WithGraphiQL(enable bool) Option                    { return func(o *Options) { o.GraphiQL = enable } }
func WithDefaultQuery(query string) Option               { return func(o *Options) { o.DefaultQuery = query } }
func WithRootValue(v any) Option                         { return func(o *Options) { o.RootValue = v } }
func WithContext(v any) Option                           { return func(o *Options) { o.Context = v } }
func WithContextFunc(fn ContextFunc) Option              { return func(o *Options) { o.ContextFunc = fn } }
func WithFieldResolver(fn graphql.FieldResolveFn) Option { return func(o *Options) { o.FieldResolver = fn } }
func WithTypeResolver(fn graphql.ResolveTypeFn) Option   { return func(o *Options) { o.TypeResolver = fn } }

func WithValidationRules(rules ...graphql.ValidationRuleFn) Option {
	return func(o *Options) { o.ValidationRules = append(o.ValidationRules, rules...) }
}

func WithSchemaValidator(fn SchemaValidateFunc) Option { return func(o *Options) { o.ValidateSchemaFn = fn } }
func WithParser(fn ParseFunc) Option                   { return func(o *Options) { o.ParseFn = fn } }
func WithValidator(fn ValidateFunc) Option             { return func(o *Options) { o.ValidateFn = fn } }
func WithExecutor(fn ExecuteFunc) Option               { return func(o *Options) { o.ExecuteFn = fn } }
func WithErrorFormatter(fn FormatErrorFunc) Option     { return func(o *Options) { o.FormatErrorFn = fn } }

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = append(o.MetadataHeaders, headers...) }
}
func WithEventBus(b *eventbus.Bus) Option { return func(o *Options) { o.Events = b } }

func defaultOptions() Options {
	return Options{
		Path:             "/graphql",
		GraphiQL:         true,
		ValidateSchemaFn: ValidateSchema,
		ParseFn:          Parse,
		ValidateFn:       Validate,
		ExecuteFn:        Execute,
		FormatErrorFn:    FormatError,
	}
}

// Parse is the default ParseFunc.
func Parse(src *source.Source) (*ast.Document, error) {
	return parser.Parse(parser.ParseParams{Source: src})
}

// Validate is the default ValidateFunc.
func Validate(schema *graphql.Schema, doc *ast.Document, rules []graphql.ValidationRuleFn) []gqlerrors.FormattedError {
	return graphql.ValidateDocument(schema, doc, rules).Errors
}

// Execute is the default ExecuteFunc. Resolver overrides in args are already
// installed on the schema by New, so they are not consulted here.
func Execute(args ExecutionArgs) *graphql.Result {
	return graphql.Execute(graphql.ExecuteParams{
		Schema:        *args.Schema,
		Root:          args.RootValue,
		AST:           args.Document,
		OperationName: args.OperationName,
		Args:          args.VariableValues,
		Context:       args.Context,
	})
}

// FormatError is the default FormatErrorFunc. The engine already produces
// spec-shaped errors, so it returns err unchanged.
func FormatError(err gqlerrors.FormattedError) any { return err }
