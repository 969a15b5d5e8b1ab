// Package explorer renders the GraphiQL page served to browsers.
//
// The page is static apart from five initial values (query, default query,
// variables, operation name and a prior response). Each one is embedded into
// an inline script as a JavaScript string literal, or as undefined when absent.
package explorer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Version is the GraphiQL release loaded by the page.
const Version = "0.17.5"

//go:embed graphiql.html
var pageSource string

var page = template.Must(template.New("graphiql").Parse(pageSource))

// Params are the request-scoped values embedded into the page. Empty strings
// and nil values are treated as absent, so an empty query parameter renders
// as undefined rather than "" and GraphiQL falls back to DefaultQuery.
type Params struct {
	Query         string
	DefaultQuery  string
	Variables     map[string]any
	OperationName string
	// Result is a response body already shaped like the JSON API output.
	Result any
}

// Render produces the complete HTML document for p.
func Render(p Params) (string, error) {
	variables, err := indented(p.Variables)
	if err != nil {
		return "", fmt.Errorf("encode variables: %w", err)
	}
	result, err := indented(p.Result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, map[string]string{
		"Version":       Version,
		"Query":         safeSerialize(p.Query),
		"DefaultQuery":  safeSerialize(p.DefaultQuery),
		"Variables":     safeSerialize(variables),
		"OperationName": safeSerialize(p.OperationName),
		"Result":        safeSerialize(result),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func indented(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// safeSerialize returns s as a JavaScript string literal. Forward slashes are
// escaped so a value can never close the surrounding script element.
func safeSerialize(s string) string {
	if s == "" {
		return "undefined"
	}
	b, _ := json.Marshal(s)
	return strings.ReplaceAll(string(b), "/", `\/`)
}
