package fusion

import (
	"slices"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// NamedType is implemented by every merged type of a configuration.
type NamedType interface {
	Name() string
	Bindings() MemberBindingCollection
}

// ObjectType is a merged object type.
// Variables and Resolvers hold the type-level entity fetches.
type ObjectType struct {
	name      string
	bindings  MemberBindingCollection
	variables VariableDefinitionCollection
	resolvers ResolverDefinitionCollection
	fields    ObjectFieldCollection
}

func (t *ObjectType) Name() string                            { return t.name }
func (t *ObjectType) Bindings() MemberBindingCollection       { return t.bindings }
func (t *ObjectType) Variables() VariableDefinitionCollection { return t.variables }
func (t *ObjectType) Resolvers() ResolverDefinitionCollection { return t.resolvers }
func (t *ObjectType) Fields() ObjectFieldCollection           { return t.fields }

// IsEntity reports whether the type can be fetched by key from at least one subgraph.
func (t *ObjectType) IsEntity() bool { return t.resolvers.Count() > 0 }

type FieldFlags uint8

const (
	// FieldFlagTypeName marks the synthetic __typename field.
	FieldFlagTypeName FieldFlags = 1 << iota
	// FieldFlagIntrospection marks reserved introspection fields such as __schema and __type.
	FieldFlagIntrospection
)

func (f FieldFlags) Has(flag FieldFlags) bool { return f&flag == flag }

// ObjectField is a merged field.
type ObjectField struct {
	name      string
	flags     FieldFlags
	arguments []string
	bindings  MemberBindingCollection
	variables VariableDefinitionCollection
	resolvers ResolverDefinitionCollection
}

func (f *ObjectField) Name() string                            { return f.name }
func (f *ObjectField) Flags() FieldFlags                       { return f.flags }
func (f *ObjectField) Bindings() MemberBindingCollection       { return f.bindings }
func (f *ObjectField) Variables() VariableDefinitionCollection { return f.variables }
func (f *ObjectField) Resolvers() ResolverDefinitionCollection { return f.resolvers }

// Arguments returns the names of the arguments declared on the merged field.
func (f *ObjectField) Arguments() []string { return slices.Clone(f.arguments) }

type VariableKind int

const (
	// ArgumentVariable takes its value from an argument of the field.
	ArgumentVariable VariableKind = iota
	// FieldVariable takes its value from a field selected on the entity in a subgraph.
	FieldVariable
)

func (k VariableKind) String() string {
	switch k {
	case ArgumentVariable:
		return "ARGUMENT"
	case FieldVariable:
		return "FIELD"
	default:
		return "UNKNOWN"
	}
}

// VariableDefinition declares how to obtain an input of a fetch template.
// Values returned from a Configuration are shared and must be treated as read-only.
type VariableDefinition struct {
	Name string
	Kind VariableKind
	Type *language.Type

	// Argument is set for ArgumentVariable.
	Argument string

	// Subgraph and Select are set for FieldVariable.
	Subgraph string
	Select   *language.Field
}

// SubgraphInfo lists the entity types a subgraph can fetch by key.
type SubgraphInfo struct {
	Name     string
	Entities []string
}
