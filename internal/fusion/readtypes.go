package fusion

import (
	"strings"

	language "github.com/hanpama/fusiongraph/internal/language"
)

const typeNameField = "__typename"

var (
	sourceArguments = [][]string{
		{"subgraph"},
		{"subgraph", "name"},
	}
	variableArguments = [][]string{
		{"name", "select", "type", "subgraph"},
		{"name", "argument"},
	}
	fetchArguments = [][]string{
		{"select", "subgraph"},
		{"select", "subgraph", "kind"},
	}
)

func (r *reader) readObjectType(def *language.Definition) {
	if _, exists := r.types[def.Name]; exists {
		r.addViolation(violationDuplicateType(def.Name, def.Position))
		return
	}

	var (
		bindings  []MemberBinding
		variables []*VariableDefinition
		resolvers []*ResolverDefinition
	)
	for _, dir := range def.Directives {
		switch dir.Name {
		case r.names.Source:
			b, ok := r.readSource(dir, def.Name)
			if !ok || !r.checkBinding(bindings, b, def.Name, dir) {
				continue
			}
			bindings = append(bindings, b)
			if b.Name != def.Name {
				r.mergedNames[[2]string{b.Subgraph, b.Name}] = def.Name
				r.subgraphNames[[2]string{b.Subgraph, def.Name}] = b.Name
			}
		case r.names.Variable:
			if v, ok := r.readVariable(dir, nil, def.Name); ok && r.checkVariable(variables, v, def.Name, dir) {
				variables = append(variables, v)
			}
		case r.names.Fetch:
			if res, ok := r.readFetch(dir, def.Name); ok && r.checkResolver(resolvers, res, def.Name) {
				resolvers = append(resolvers, res)
			}
		default:
			r.expectDirective(dir, "type "+def.Name, r.names.Source, r.names.Variable, r.names.Fetch)
		}
	}

	typeVariables := newVariableDefinitionCollection(variables)
	r.checkRequires(def.Name, resolvers, typeVariables, VariableDefinitionCollection{})

	fields := make([]*ObjectField, 0, len(def.Fields)+1)
	for _, fieldDef := range def.Fields {
		if fieldDef.Name == typeNameField {
			continue
		}
		fields = append(fields, r.readObjectField(def.Name, fieldDef, typeVariables))
	}
	fields = append(fields, r.newTypeNameField())

	r.types[def.Name] = &ObjectType{
		name:      def.Name,
		bindings:  newMemberBindingCollection(bindings),
		variables: typeVariables,
		resolvers: newResolverDefinitionCollection(resolvers),
		fields:    newObjectFieldCollection(fields),
	}
	r.typeOrder = append(r.typeOrder, def.Name)
}

func (r *reader) readObjectField(typeName string, def *language.FieldDefinition, typeVariables VariableDefinitionCollection) *ObjectField {
	member := typeName + "." + def.Name

	var (
		bindings  []MemberBinding
		variables []*VariableDefinition
		resolvers []*ResolverDefinition
	)
	for _, dir := range def.Directives {
		switch dir.Name {
		case r.names.Source:
			if b, ok := r.readSource(dir, def.Name); ok && r.checkBinding(bindings, b, member, dir) {
				bindings = append(bindings, b)
			}
		case r.names.Variable:
			if v, ok := r.readVariable(dir, def, member); ok && r.checkVariable(variables, v, member, dir) {
				variables = append(variables, v)
			}
		case r.names.Fetch:
			if res, ok := r.readFetch(dir, typeName); ok && r.checkResolver(resolvers, res, member) {
				resolvers = append(resolvers, res)
			}
		default:
			r.expectDirective(dir, "field "+member, r.names.Source, r.names.Variable, r.names.Fetch)
		}
	}

	fieldVariables := newVariableDefinitionCollection(variables)
	r.checkRequires(member, resolvers, fieldVariables, typeVariables)

	arguments := make([]string, len(def.Arguments))
	for i, arg := range def.Arguments {
		arguments[i] = arg.Name
	}

	var flags FieldFlags
	if strings.HasPrefix(def.Name, "__") {
		flags |= FieldFlagIntrospection
	}

	return &ObjectField{
		name:      def.Name,
		flags:     flags,
		arguments: arguments,
		bindings:  newMemberBindingCollection(bindings),
		variables: fieldVariables,
		resolvers: newResolverDefinitionCollection(resolvers),
	}
}

// newTypeNameField builds the synthetic __typename field, resolvable in every subgraph.
func (r *reader) newTypeNameField() *ObjectField {
	bindings := make([]MemberBinding, len(r.subgraphs))
	for i, subgraph := range r.subgraphs {
		bindings[i] = MemberBinding{Subgraph: subgraph, Name: typeNameField}
	}
	return &ObjectField{
		name:     typeNameField,
		flags:    FieldFlagTypeName,
		bindings: newMemberBindingCollection(bindings),
	}
}

func (r *reader) readSource(dir *language.Directive, memberName string) (MemberBinding, bool) {
	args, ok := r.directiveArguments(dir, sourceArguments...)
	if !ok {
		return MemberBinding{}, false
	}
	subgraph, ok := r.getStringValue(args["subgraph"])
	if !ok || !r.checkSubgraph(dir, subgraph) {
		return MemberBinding{}, false
	}
	name := memberName
	if v, exists := args["name"]; exists {
		if name, ok = r.getStringValue(v); !ok {
			return MemberBinding{}, false
		}
	}
	return MemberBinding{Subgraph: subgraph, Name: name}, true
}

// readVariable reads a @variable directive. field is nil for type-level variables,
// which can only be derived from a field selection.
func (r *reader) readVariable(dir *language.Directive, field *language.FieldDefinition, member string) (*VariableDefinition, bool) {
	args, ok := r.directiveArguments(dir, variableArguments...)
	if !ok {
		return nil, false
	}
	name, ok := r.getStringValue(args["name"])
	if !ok {
		return nil, false
	}

	if argValue, isArgument := args["argument"]; isArgument {
		if field == nil {
			r.addViolation(violationArgumentVariableOnType(name, member, dir.Position))
			return nil, false
		}
		argument, ok := r.getStringValue(argValue)
		if !ok {
			return nil, false
		}
		argDef := field.Arguments.ForName(argument)
		if argDef == nil {
			r.addViolation(violationUnknownArgument(argument, member, argValue.Position))
			return nil, false
		}
		return &VariableDefinition{
			Name:     name,
			Kind:     ArgumentVariable,
			Type:     argDef.Type,
			Argument: argument,
		}, true
	}

	subgraph, ok := r.getStringValue(args["subgraph"])
	if !ok || !r.checkSubgraph(dir, subgraph) {
		return nil, false
	}
	rawSelect, ok := r.getStringValue(args["select"])
	if !ok {
		return nil, false
	}
	rawType, ok := r.getStringValue(args["type"])
	if !ok {
		return nil, false
	}

	selection, err := language.ParseSelectionSet(rawSelect)
	if err != nil {
		r.addViolation(violationInvalidSelect(dir.Name, rawSelect, err, args["select"].Position))
		return nil, false
	}
	var selectField *language.Field
	if len(selection) == 1 {
		selectField, _ = selection[0].(*language.Field)
	}
	if selectField == nil {
		r.addViolation(violationVariableSelectNotField(name, args["select"].Position))
		return nil, false
	}
	typ, err := language.ParseType(rawType)
	if err != nil {
		r.addViolation(violationInvalidType(rawType, err, args["type"].Position))
		return nil, false
	}

	return &VariableDefinition{
		Name:     name,
		Kind:     FieldVariable,
		Type:     typ,
		Subgraph: subgraph,
		Select:   selectField,
	}, true
}

func (r *reader) readFetch(dir *language.Directive, parentType string) (*ResolverDefinition, bool) {
	args, ok := r.directiveArguments(dir, fetchArguments...)
	if !ok {
		return nil, false
	}
	subgraph, ok := r.getStringValue(args["subgraph"])
	if !ok || !r.checkSubgraph(dir, subgraph) {
		return nil, false
	}
	rawSelect, ok := r.getStringValue(args["select"])
	if !ok {
		return nil, false
	}

	kind := FetchResolver
	if parentType == r.subscriptionType {
		kind = SubscribeResolver
	}
	if v, exists := args["kind"]; exists {
		rawKind, ok := r.getEnumValue(v)
		if !ok {
			return nil, false
		}
		if kind, ok = parseResolverKind(rawKind); !ok {
			r.addViolation(violationUnknownResolverKind(rawKind, v.Position))
			return nil, false
		}
	}

	template, err := language.ParseSelectionSet(rawSelect)
	if err != nil {
		r.addViolation(violationInvalidSelect(dir.Name, rawSelect, err, args["select"].Position))
		return nil, false
	}

	var placeholder []int
	switch found := findPlaceholders(template, nil); len(found) {
	case 0:
	case 1:
		placeholder = found[0]
		holder := selectionAt(template, placeholder)
		if placeholder[len(placeholder)-1] != len(holder)-1 {
			r.addViolation(violationPlaceholderNotLast(args["select"].Position))
			return nil, false
		}
	default:
		r.addViolation(violationMultiplePlaceholders(args["select"].Position))
		return nil, false
	}

	return &ResolverDefinition{
		subgraph:    subgraph,
		kind:        kind,
		template:    template,
		placeholder: placeholder,
		requires:    collectVariables(template, make(map[string]struct{}), nil),
		pos:         dir.Position,
	}, true
}

func (r *reader) checkBinding(existing []MemberBinding, b MemberBinding, member string, dir *language.Directive) bool {
	for _, e := range existing {
		if e.Subgraph == b.Subgraph {
			r.addViolation(violationDuplicateBinding(member, b.Subgraph, dir.Position))
			return false
		}
	}
	return true
}

func (r *reader) checkVariable(existing []*VariableDefinition, v *VariableDefinition, member string, dir *language.Directive) bool {
	for _, e := range existing {
		if e.Name == v.Name {
			r.addViolation(violationDuplicateVariable(v.Name, member, dir.Position))
			return false
		}
	}
	return true
}

// checkResolver rejects a second fetch of the same kind for the same subgraph.
func (r *reader) checkResolver(existing []*ResolverDefinition, res *ResolverDefinition, member string) bool {
	for _, e := range existing {
		if e.subgraph == res.subgraph && e.kind == res.kind {
			r.addViolation(violationDuplicateResolver(member, res.subgraph, res.kind, res.pos))
			return false
		}
	}
	return true
}

func (r *reader) checkRequires(member string, resolvers []*ResolverDefinition, own, outer VariableDefinitionCollection) {
	for _, res := range resolvers {
		for _, name := range res.requires {
			if !own.Contains(name) && !outer.Contains(name) {
				r.addViolation(violationUndefinedVariable(member, name, res.pos))
			}
		}
	}
}
