// Package schema loads GraphQL SDL into an executable graphql-go schema.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	gqlast "github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Load parses and validates SDL. name is used in error positions.
func Load(name, sdl string) (*gqlast.Schema, error) {
	s, err := gqlparser.LoadSchema(&gqlast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	return s, nil
}

// LoadFile reads and loads an SDL file.
func LoadFile(path string) (*gqlast.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Load(filepath.Base(path), string(b))
}

// BuildFromSDL loads sdl and builds it with ResolveTypename for abstract types.
func BuildFromSDL(sdl string) (graphql.Schema, error) {
	s, err := Load("schema.graphql", sdl)
	if err != nil {
		return graphql.Schema{}, err
	}
	return Build(s, ResolveTypename)
}

// Build converts a loaded schema into a graphql-go schema. Fields get no
// resolvers, so the engine's default resolver reads them from map or struct
// sources. Interfaces and unions resolve their concrete type with
// resolveType; nil means ResolveTypename.
func Build(s *gqlast.Schema, resolveType graphql.ResolveTypeFn) (graphql.Schema, error) {
	if resolveType == nil {
		resolveType = ResolveTypename
	}
	b := newBuilder(s, resolveType)
	return b.build()
}

// ResolveTypename picks the concrete type of an abstract value from its
// "__typename" key. Values without one resolve only when the abstract type
// has a single possible type.
func ResolveTypename(p graphql.ResolveTypeParams) *graphql.Object {
	if m, ok := p.Value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			if obj, ok := p.Info.Schema.Type(name).(*graphql.Object); ok {
				return obj
			}
			return nil
		}
	}
	abstract, ok := graphql.GetNamed(p.Info.ReturnType).(graphql.Abstract)
	if !ok {
		return nil
	}
	if possible := p.Info.Schema.PossibleTypes(abstract); len(possible) == 1 {
		return possible[0]
	}
	return nil
}

// Render prints s back to SDL, without built-in definitions.
func Render(s *gqlast.Schema) string {
	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchema(s)
	return b.String()
}
