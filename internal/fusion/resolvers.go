package fusion

import (
	"slices"

	language "github.com/hanpama/fusiongraph/internal/language"
)

type ResolverKind int

const (
	// FetchResolver is a plain query fetch.
	FetchResolver ResolverKind = iota
	// BatchResolver fetches many entities in one request.
	BatchResolver
	// SubscribeResolver opens a subscription.
	SubscribeResolver
)

func (k ResolverKind) String() string {
	switch k {
	case FetchResolver:
		return "FETCH"
	case BatchResolver:
		return "BATCH"
	case SubscribeResolver:
		return "SUBSCRIBE"
	default:
		return "UNKNOWN"
	}
}

func parseResolverKind(s string) (ResolverKind, bool) {
	switch s {
	case "FETCH":
		return FetchResolver, true
	case "BATCH":
		return BatchResolver, true
	case "SUBSCRIBE":
		return SubscribeResolver, true
	}
	return 0, false
}

// ResolverDefinition is a template selection describing how to fetch a member
// from one subgraph. The template is shared by concurrent callers and never
// modified; CreateSelection builds a new tree on every call.
type ResolverDefinition struct {
	subgraph string
	kind     ResolverKind
	template language.SelectionSet
	// placeholder is the index path from the template root to the placeholder
	// spread, nil when the template has none.
	placeholder []int
	requires    []string
	pos         *language.Position
}

func (r *ResolverDefinition) Subgraph() string   { return r.subgraph }
func (r *ResolverDefinition) Kind() ResolverKind { return r.kind }

// Template returns the stored selection set. Callers must not modify it.
func (r *ResolverDefinition) Template() language.SelectionSet { return r.template }

func (r *ResolverDefinition) HasPlaceholder() bool { return r.placeholder != nil }

// Requires returns the variable names referenced by the template in order of appearance.
func (r *ResolverDefinition) Requires() []string { return slices.Clone(r.requires) }

// findPlaceholders returns the index paths of every fragment spread in set.
func findPlaceholders(set language.SelectionSet, prefix []int) [][]int {
	var out [][]int
	for i, sel := range set {
		path := append(slices.Clone(prefix), i)
		switch s := sel.(type) {
		case *language.FragmentSpread:
			out = append(out, path)
		case *language.Field:
			out = append(out, findPlaceholders(s.SelectionSet, path)...)
		case *language.InlineFragment:
			out = append(out, findPlaceholders(s.SelectionSet, path)...)
		}
	}
	return out
}

// selectionAt walks an index path and returns the selection set that holds its last element.
func selectionAt(set language.SelectionSet, path []int) language.SelectionSet {
	for _, i := range path[:len(path)-1] {
		switch s := set[i].(type) {
		case *language.Field:
			set = s.SelectionSet
		case *language.InlineFragment:
			set = s.SelectionSet
		default:
			return nil
		}
	}
	return set
}

// collectVariables appends the names of variables referenced in set, skipping known ones.
func collectVariables(set language.SelectionSet, seen map[string]struct{}, out []string) []string {
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			for _, arg := range s.Arguments {
				out = collectValueVariables(arg.Value, seen, out)
			}
			out = collectDirectiveVariables(s.Directives, seen, out)
			out = collectVariables(s.SelectionSet, seen, out)
		case *language.InlineFragment:
			out = collectDirectiveVariables(s.Directives, seen, out)
			out = collectVariables(s.SelectionSet, seen, out)
		case *language.FragmentSpread:
			out = collectDirectiveVariables(s.Directives, seen, out)
		}
	}
	return out
}

func collectDirectiveVariables(dirs language.DirectiveList, seen map[string]struct{}, out []string) []string {
	for _, dir := range dirs {
		for _, arg := range dir.Arguments {
			out = collectValueVariables(arg.Value, seen, out)
		}
	}
	return out
}

func collectValueVariables(v *language.Value, seen map[string]struct{}, out []string) []string {
	if v == nil {
		return out
	}
	switch v.Kind {
	case language.Variable:
		if _, ok := seen[v.Raw]; !ok {
			seen[v.Raw] = struct{}{}
			out = append(out, v.Raw)
		}
	case language.ListValue, language.ObjectValue:
		for _, child := range v.Children {
			out = collectValueVariables(child.Value, seen, out)
		}
	}
	return out
}
