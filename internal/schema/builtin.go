package schema

import "github.com/graphql-go/graphql"

var builtinScalars = map[string]*graphql.Scalar{
	"String":  graphql.String,
	"Int":     graphql.Int,
	"Float":   graphql.Float,
	"Boolean": graphql.Boolean,
	"ID":      graphql.ID,
}

// builtinDirectives are provided by the engine; SDL declarations of them are
// not rebuilt.
var builtinDirectives = map[string]bool{
	"include":     true,
	"skip":        true,
	"deprecated":  true,
	"specifiedBy": true,
	"defer":       true,
	"oneOf":       true,
}

const defaultDeprecationReason = "No longer supported"
