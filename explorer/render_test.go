package explorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderEmbedsValues(t *testing.T) {
	out, err := Render(Params{
		Query:         "{hello}",
		Variables:     map[string]any{"skip": true},
		OperationName: "Q",
		Result:        map[string]any{"data": map[string]any{"hello": "world"}},
	})
	require.NoError(t, err)

	require.Contains(t, out, "React.createElement(GraphiQL")
	require.Contains(t, out, `query: "{hello}",`)
	require.Contains(t, out, `operationName: "Q",`)
	require.Contains(t, out, `variables: "{\n  \"skip\": true\n}",`)
	require.Contains(t, out, `\"hello\": \"world\"`)
	require.Contains(t, out, "graphiql@"+Version)
}

func TestRenderAbsentValuesAreUndefined(t *testing.T) {
	out, err := Render(Params{})
	require.NoError(t, err)
	for _, name := range []string{"query", "response", "variables", "operationName", "defaultQuery"} {
		require.Contains(t, out, name+": undefined,", name)
	}
}

func TestRenderDefaultQuery(t *testing.T) {
	out, err := Render(Params{DefaultQuery: "{ me }"})
	require.NoError(t, err)
	require.Contains(t, out, `defaultQuery: "{ me }",`)
	require.Contains(t, out, "query: undefined,")
}

func TestRenderEscapesScriptTerminators(t *testing.T) {
	hostile := `{ a } </script><script>alert(1)</script>`
	out, err := Render(Params{Query: hostile, OperationName: "a/b"})
	require.NoError(t, err)

	// the only closing tags left are the page's own
	require.Equal(t, strings.Count(pageSource, "</script>"), strings.Count(out, "</script>"))
	require.NotContains(t, out, "alert(1)</script>")
	require.Contains(t, out, `operationName: "a\/b",`)
}

func TestRenderRejectsUnencodableResult(t *testing.T) {
	_, err := Render(Params{Result: map[string]any{"c": make(chan int)}})
	require.Error(t, err)
}

func TestSafeSerialize(t *testing.T) {
	require.Equal(t, "undefined", safeSerialize(""))
	require.Equal(t, `"\/a\/"`, safeSerialize("/a/"))
	require.Equal(t, `"say \"hi\""`, safeSerialize(`say "hi"`))
}
