package fusion

import "slices"

// MemberBinding associates a merged type or field with its name in one subgraph.
type MemberBinding struct {
	Subgraph string `json:"subgraph"`
	Name     string `json:"name"`
}

// MemberBindingCollection holds at most one binding per subgraph, in declaration order.
type MemberBindingCollection struct {
	bindings   []MemberBinding
	bySubgraph map[string]int
}

func newMemberBindingCollection(bindings []MemberBinding) MemberBindingCollection {
	c := MemberBindingCollection{
		bindings:   bindings,
		bySubgraph: make(map[string]int, len(bindings)),
	}
	for i, b := range bindings {
		c.bySubgraph[b.Subgraph] = i
	}
	return c
}

func (c MemberBindingCollection) Len() int { return len(c.bindings) }

func (c MemberBindingCollection) Get(subgraph string) (MemberBinding, bool) {
	i, ok := c.bySubgraph[subgraph]
	if !ok {
		return MemberBinding{}, false
	}
	return c.bindings[i], true
}

func (c MemberBindingCollection) ContainsSubgraph(subgraph string) bool {
	_, ok := c.bySubgraph[subgraph]
	return ok
}

func (c MemberBindingCollection) Subgraphs() []string {
	out := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		out[i] = b.Subgraph
	}
	return out
}

func (c MemberBindingCollection) All() []MemberBinding { return slices.Clone(c.bindings) }

// VariableDefinitionCollection holds the variables visible on a member, keyed by name.
type VariableDefinitionCollection struct {
	variables []*VariableDefinition
	byName    map[string]int
}

func newVariableDefinitionCollection(variables []*VariableDefinition) VariableDefinitionCollection {
	c := VariableDefinitionCollection{
		variables: variables,
		byName:    make(map[string]int, len(variables)),
	}
	for i, v := range variables {
		c.byName[v.Name] = i
	}
	return c
}

func (c VariableDefinitionCollection) Len() int { return len(c.variables) }

func (c VariableDefinitionCollection) Get(name string) (*VariableDefinition, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.variables[i], true
}

func (c VariableDefinitionCollection) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c VariableDefinitionCollection) All() []*VariableDefinition { return slices.Clone(c.variables) }

// ResolverDefinitionCollection groups fetch templates by subgraph.
// Count reports the number of distinct subgraphs.
type ResolverDefinitionCollection struct {
	subgraphs  []string
	bySubgraph map[string][]*ResolverDefinition
}

func newResolverDefinitionCollection(resolvers []*ResolverDefinition) ResolverDefinitionCollection {
	c := ResolverDefinitionCollection{bySubgraph: make(map[string][]*ResolverDefinition)}
	for _, r := range resolvers {
		if _, ok := c.bySubgraph[r.subgraph]; !ok {
			c.subgraphs = append(c.subgraphs, r.subgraph)
		}
		c.bySubgraph[r.subgraph] = append(c.bySubgraph[r.subgraph], r)
	}
	return c
}

func (c ResolverDefinitionCollection) Count() int { return len(c.subgraphs) }

func (c ResolverDefinitionCollection) ContainsResolvers(subgraph string) bool {
	return len(c.bySubgraph[subgraph]) > 0
}

func (c ResolverDefinitionCollection) TryGetResolvers(subgraph string) ([]*ResolverDefinition, bool) {
	rs, ok := c.bySubgraph[subgraph]
	if !ok {
		return nil, false
	}
	return slices.Clone(rs), true
}

// Find returns the resolver of the given kind for a subgraph.
func (c ResolverDefinitionCollection) Find(subgraph string, kind ResolverKind) (*ResolverDefinition, bool) {
	for _, r := range c.bySubgraph[subgraph] {
		if r.kind == kind {
			return r, true
		}
	}
	return nil, false
}

func (c ResolverDefinitionCollection) Subgraphs() []string { return slices.Clone(c.subgraphs) }

func (c ResolverDefinitionCollection) All() []*ResolverDefinition {
	var out []*ResolverDefinition
	for _, s := range c.subgraphs {
		out = append(out, c.bySubgraph[s]...)
	}
	return out
}

// ObjectFieldCollection holds the fields of an object type in declaration order.
type ObjectFieldCollection struct {
	fields []*ObjectField
	byName map[string]int
}

func newObjectFieldCollection(fields []*ObjectField) ObjectFieldCollection {
	c := ObjectFieldCollection{
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		c.byName[f.name] = i
	}
	return c
}

func (c ObjectFieldCollection) Len() int { return len(c.fields) }

func (c ObjectFieldCollection) Get(name string) (*ObjectField, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.fields[i], true
}

func (c ObjectFieldCollection) All() []*ObjectField { return slices.Clone(c.fields) }
