package fusion

import (
	"fmt"
	"slices"

	language "github.com/hanpama/fusiongraph/internal/language"
)

type selectionOptions struct {
	unspecifiedArguments []string
}

type SelectionOption func(*selectionOptions)

// WithUnspecifiedArguments names arguments the caller's operation omitted.
// They are removed from the rewritten field so the subgraph applies its own defaults.
func WithUnspecifiedArguments(names ...string) SelectionOption {
	return func(o *selectionOptions) { o.unspecifiedArguments = append(o.unspecifiedArguments, names...) }
}

// CreateSelection builds the selection to send to the resolver's subgraph.
//
// Variables found in variables are substituted; others are left in place.
// requested is spliced in at the placeholder. When the template has no
// placeholder, requested becomes the selection set of the single root field.
// A non-empty responseName becomes the alias of the field holding the
// placeholder. As in parsed documents, Alias always holds the response key.
//
// The returned path lists the response keys leading to the resolved value.
func (r *ResolverDefinition) CreateSelection(
	variables map[string]*language.Value,
	requested language.SelectionSet,
	responseName string,
	opts ...SelectionOption,
) (language.SelectionSet, []string, error) {
	var o selectionOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &rewriteContext{
		placeholder:  r.placeholder,
		variables:    variables,
		requested:    requested,
		responseName: responseName,
	}
	if len(o.unspecifiedArguments) > 0 {
		c.unspecified = make(map[string]struct{}, len(o.unspecifiedArguments))
		for _, name := range o.unspecifiedArguments {
			c.unspecified[name] = struct{}{}
		}
	}

	set := c.rewriteSelectionSet(r.template)
	path := c.selectionPath

	if r.placeholder == nil {
		field := singleField(set)
		if field == nil {
			if requested != nil {
				return nil, nil, fmt.Errorf("%w: subgraph %q", ErrSelectionRootNotField, r.subgraph)
			}
		} else {
			field.Arguments = c.stripArguments(field.Arguments)
			if requested != nil {
				field.SelectionSet = requested
				path = []string{responseKey(field)}
			}
		}
	}

	if path == nil {
		path = []string{}
	}
	return set, path, nil
}

// rewriteContext is allocated per CreateSelection call.
type rewriteContext struct {
	path          []string
	indexes       []int
	placeholder   []int
	variables     map[string]*language.Value
	requested     language.SelectionSet
	responseName  string
	unspecified   map[string]struct{}
	selectionPath []string
	found         bool
}

func (c *rewriteContext) rewriteSelectionSet(set language.SelectionSet) language.SelectionSet {
	if set == nil {
		return nil
	}
	holder := c.holdsPlaceholder()
	out := make(language.SelectionSet, 0, len(set)+len(c.requested))
	for i, sel := range set {
		if holder && i == c.placeholder[len(c.placeholder)-1] {
			c.recordPath()
			out = append(out, c.requested...)
			break
		}
		c.indexes = append(c.indexes, i)
		out = append(out, c.rewriteSelection(sel))
		c.indexes = c.indexes[:len(c.indexes)-1]
	}
	return out
}

// holdsPlaceholder reports whether the selection set being rewritten contains the placeholder.
func (c *rewriteContext) holdsPlaceholder() bool {
	n := len(c.placeholder)
	return n > 0 && n == len(c.indexes)+1 && slices.Equal(c.placeholder[:n-1], c.indexes)
}

func (c *rewriteContext) recordPath() {
	path := slices.Clone(c.path)
	if c.responseName != "" && len(path) > 0 {
		path[len(path)-1] = c.responseName
	}
	c.selectionPath = path
	c.found = true
}

func (c *rewriteContext) rewriteSelection(sel language.Selection) language.Selection {
	switch s := sel.(type) {
	case *language.Field:
		return c.rewriteField(s)
	case *language.InlineFragment:
		out := *s
		out.Directives = c.rewriteDirectives(s.Directives)
		out.SelectionSet = c.rewriteSelectionSet(s.SelectionSet)
		return &out
	case *language.FragmentSpread:
		out := *s
		out.Directives = c.rewriteDirectives(s.Directives)
		return &out
	default:
		return sel
	}
}

func (c *rewriteContext) rewriteField(f *language.Field) *language.Field {
	c.path = append(c.path, responseKey(f))

	out := *f
	out.Arguments = c.rewriteArguments(f.Arguments)
	out.Directives = c.rewriteDirectives(f.Directives)
	out.SelectionSet = c.rewriteSelectionSet(f.SelectionSet)

	if c.found {
		c.found = false
		if c.responseName != "" {
			out.Alias = c.responseName
		}
		out.Arguments = c.stripArguments(out.Arguments)
	}

	c.path = c.path[:len(c.path)-1]
	return &out
}

func (c *rewriteContext) rewriteArguments(args language.ArgumentList) language.ArgumentList {
	if args == nil {
		return nil
	}
	out := make(language.ArgumentList, len(args))
	for i, arg := range args {
		a := *arg
		a.Value = c.rewriteValue(arg.Value)
		out[i] = &a
	}
	return out
}

func (c *rewriteContext) rewriteDirectives(dirs language.DirectiveList) language.DirectiveList {
	if dirs == nil {
		return nil
	}
	out := make(language.DirectiveList, len(dirs))
	for i, dir := range dirs {
		d := *dir
		d.Arguments = c.rewriteArguments(dir.Arguments)
		out[i] = &d
	}
	return out
}

func (c *rewriteContext) rewriteValue(v *language.Value) *language.Value {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.Variable:
		if replacement, ok := c.variables[v.Raw]; ok {
			return replacement
		}
		return v
	case language.ListValue, language.ObjectValue:
		out := *v
		out.Children = make(language.ChildValueList, len(v.Children))
		for i, child := range v.Children {
			cv := *child
			cv.Value = c.rewriteValue(child.Value)
			out.Children[i] = &cv
		}
		return &out
	default:
		return v
	}
}

func (c *rewriteContext) stripArguments(args language.ArgumentList) language.ArgumentList {
	if len(c.unspecified) == 0 || len(args) == 0 {
		return args
	}
	out := make(language.ArgumentList, 0, len(args))
	for _, arg := range args {
		if _, omit := c.unspecified[arg.Name]; !omit {
			out = append(out, arg)
		}
	}
	return out
}

// responseKey is the key a field's value appears under in a response.
// The parser stores the field name as alias when none is given.
func responseKey(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func singleField(set language.SelectionSet) *language.Field {
	if len(set) != 1 {
		return nil
	}
	f, _ := set[0].(*language.Field)
	return f
}
