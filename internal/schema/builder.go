package schema

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	gqlast "github.com/vektah/gqlparser/v2/ast"
)

type builder struct {
	src         *gqlast.Schema
	resolveType graphql.ResolveTypeFn
	types       map[string]graphql.Type
	err         error
}

func newBuilder(s *gqlast.Schema, resolveType graphql.ResolveTypeFn) *builder {
	return &builder{src: s, resolveType: resolveType, types: make(map[string]graphql.Type)}
}

func (b *builder) build() (graphql.Schema, error) {
	names := make([]string, 0, len(b.src.Types))
	for name, def := range b.src.Types {
		if def.BuiltIn {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// unions reference objects directly, so they go last
	for _, name := range names {
		if def := b.src.Types[name]; def.Kind != gqlast.Union {
			b.types[name] = b.buildType(def)
		}
	}
	for _, name := range names {
		if def := b.src.Types[name]; def.Kind == gqlast.Union {
			b.types[name] = b.buildUnion(def)
		}
	}

	cfg := graphql.SchemaConfig{}
	for _, name := range names {
		cfg.Types = append(cfg.Types, b.types[name])
	}
	if b.src.Query != nil {
		cfg.Query, _ = b.types[b.src.Query.Name].(*graphql.Object)
	}
	if b.src.Mutation != nil {
		cfg.Mutation, _ = b.types[b.src.Mutation.Name].(*graphql.Object)
	}
	if b.src.Subscription != nil {
		cfg.Subscription, _ = b.types[b.src.Subscription.Name].(*graphql.Object)
	}
	if dirs := b.buildDirectives(); len(dirs) > 0 {
		cfg.Directives = append(append([]*graphql.Directive{}, graphql.SpecifiedDirectives...), dirs...)
	}

	s, err := graphql.NewSchema(cfg)
	if b.err != nil {
		return graphql.Schema{}, b.err
	}
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return s, nil
}

func (b *builder) buildType(def *gqlast.Definition) graphql.Type {
	switch def.Kind {
	case gqlast.Object:
		return graphql.NewObject(graphql.ObjectConfig{
			Name:        def.Name,
			Description: def.Description,
			Fields:      b.fieldsThunk(def),
			Interfaces: graphql.InterfacesThunk(func() []*graphql.Interface {
				ifaces := make([]*graphql.Interface, 0, len(def.Interfaces))
				for _, name := range def.Interfaces {
					if iface, ok := b.types[name].(*graphql.Interface); ok {
						ifaces = append(ifaces, iface)
					}
				}
				return ifaces
			}),
		})
	case gqlast.Interface:
		return graphql.NewInterface(graphql.InterfaceConfig{
			Name:        def.Name,
			Description: def.Description,
			Fields:      b.fieldsThunk(def),
			ResolveType: b.resolveType,
		})
	case gqlast.Enum:
		values := graphql.EnumValueConfigMap{}
		for _, v := range def.EnumValues {
			values[v.Name] = &graphql.EnumValueConfig{
				Value:             v.Name,
				Description:       v.Description,
				DeprecationReason: deprecationReason(v.Directives),
			}
		}
		return graphql.NewEnum(graphql.EnumConfig{Name: def.Name, Description: def.Description, Values: values})
	case gqlast.InputObject:
		return graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        def.Name,
			Description: def.Description,
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				fields := graphql.InputObjectConfigFieldMap{}
				for _, f := range def.Fields {
					fields[f.Name] = &graphql.InputObjectFieldConfig{
						Type:         b.typeRef(f.Type),
						DefaultValue: b.defaultValue(f.DefaultValue),
						Description:  f.Description,
					}
				}
				return fields
			}),
		})
	case gqlast.Scalar:
		return customScalar(def)
	}
	b.fail(fmt.Errorf("type %s: unsupported kind %s", def.Name, def.Kind))
	return nil
}

func (b *builder) buildUnion(def *gqlast.Definition) *graphql.Union {
	members := make([]*graphql.Object, 0, len(def.Types))
	for _, name := range def.Types {
		obj, ok := b.types[name].(*graphql.Object)
		if !ok {
			b.fail(fmt.Errorf("union %s: member %s is not an object type", def.Name, name))
			continue
		}
		members = append(members, obj)
	}
	return graphql.NewUnion(graphql.UnionConfig{
		Name:        def.Name,
		Description: def.Description,
		Types:       members,
		ResolveType: b.resolveType,
	})
}

func (b *builder) fieldsThunk(def *gqlast.Definition) graphql.FieldsThunk {
	return func() graphql.Fields {
		fields := graphql.Fields{}
		for _, f := range def.Fields {
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			field := &graphql.Field{
				Name:              f.Name,
				Description:       f.Description,
				Type:              b.typeRef(f.Type),
				DeprecationReason: deprecationReason(f.Directives),
			}
			if len(f.Arguments) > 0 {
				field.Args = b.args(f.Arguments)
			}
			fields[f.Name] = field
		}
		return fields
	}
}

func (b *builder) args(defs gqlast.ArgumentDefinitionList) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for _, a := range defs {
		args[a.Name] = &graphql.ArgumentConfig{
			Type:         b.typeRef(a.Type),
			DefaultValue: b.defaultValue(a.DefaultValue),
			Description:  a.Description,
		}
	}
	return args
}

func (b *builder) buildDirectives() []*graphql.Directive {
	names := make([]string, 0, len(b.src.Directives))
	for name := range b.src.Directives {
		if !builtinDirectives[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	dirs := make([]*graphql.Directive, 0, len(names))
	for _, name := range names {
		d := b.src.Directives[name]
		locations := make([]string, 0, len(d.Locations))
		for _, l := range d.Locations {
			locations = append(locations, string(l))
		}
		cfg := graphql.DirectiveConfig{
			Name:        d.Name,
			Description: d.Description,
			Locations:   locations,
		}
		if len(d.Arguments) > 0 {
			cfg.Args = b.args(d.Arguments)
		}
		dirs = append(dirs, graphql.NewDirective(cfg))
	}
	return dirs
}

func (b *builder) typeRef(t *gqlast.Type) graphql.Type {
	var out graphql.Type
	if t.Elem != nil {
		out = graphql.NewList(b.typeRef(t.Elem))
	} else {
		out = b.named(t.NamedType)
	}
	if t.NonNull {
		return graphql.NewNonNull(out)
	}
	return out
}

func (b *builder) named(name string) graphql.Type {
	if s, ok := builtinScalars[name]; ok {
		return s
	}
	if t, ok := b.types[name]; ok {
		return t
	}
	b.fail(fmt.Errorf("unknown type %s", name))
	return graphql.String
}

func (b *builder) defaultValue(v *gqlast.Value) any {
	if v == nil {
		return nil
	}
	out, err := v.Value(nil)
	if err != nil {
		b.fail(fmt.Errorf("default value %s: %w", v.Raw, err))
		return nil
	}
	return out
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func deprecationReason(dirs gqlast.DirectiveList) string {
	d := dirs.ForName("deprecated")
	if d == nil {
		return ""
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return defaultDeprecationReason
}

// customScalar passes values through unchanged in both directions.
func customScalar(def *gqlast.Definition) *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:         def.Name,
		Description:  def.Description,
		Serialize:    func(v any) any { return v },
		ParseValue:   func(v any) any { return v },
		ParseLiteral: literalValue,
	})
}

func literalValue(v ast.Value) any {
	switch v := v.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.IntValue:
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		return f
	case *ast.ListValue:
		out := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			out = append(out, literalValue(item))
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = literalValue(f.Value)
		}
		return out
	}
	return nil
}
