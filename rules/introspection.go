// Package rules holds extra validation rules for the middleware's
// WithValidationRules option.
package rules

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/kinds"
	"github.com/graphql-go/graphql/language/visitor"
)

// IntrospectionDisabledMessage is reported for every introspection field.
const IntrospectionDisabledMessage = "GraphQL introspection is not allowed, but the query contained __schema or __type"

// DisableIntrospection rejects documents selecting __schema or __type.
// __typename stays allowed.
func DisableIntrospection(ctx *graphql.ValidationContext) *graphql.ValidationRuleInstance {
	return &graphql.ValidationRuleInstance{
		VisitorOpts: &visitor.VisitorOptions{
			KindFuncMap: map[string]visitor.NamedVisitFuncs{
				kinds.Field: {
					Kind: func(p visitor.VisitFuncParams) (string, any) {
						f, ok := p.Node.(*ast.Field)
						if !ok || f.Name == nil {
							return visitor.ActionNoChange, nil
						}
						if f.Name.Value == "__schema" || f.Name.Value == "__type" {
							ctx.ReportError(gqlerrors.NewError(
								IntrospectionDisabledMessage,
								[]ast.Node{f},
								"",
								nil,
								[]int{},
								nil,
							))
						}
						return visitor.ActionNoChange, nil
					},
				},
			},
		},
	}
}
