package fusion

import (
	"slices"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// expectDirective reports dir when it is a configuration directive that is not
// read at location. Directives of other tools are left alone.
func (r *reader) expectDirective(dir *language.Directive, location string, expected ...string) {
	if !slices.Contains(r.names.all(), dir.Name) {
		return
	}
	r.addViolation(violationUnexpectedDirective(dir.Name, location, expected, dir.Position))
}

// directiveArguments checks that the argument names of dir equal one of the
// accepted sets exactly and returns the argument values by name.
func (r *reader) directiveArguments(dir *language.Directive, accepted ...[]string) (map[string]*language.Value, bool) {
	values := make(map[string]*language.Value, len(dir.Arguments))
	names := make([]string, 0, len(dir.Arguments))
	for _, arg := range dir.Arguments {
		if _, dup := values[arg.Name]; dup {
			r.addViolation(violationDuplicateDirectiveArgument(dir.Name, arg.Name, arg.Position))
			return nil, false
		}
		values[arg.Name] = arg.Value
		names = append(names, arg.Name)
	}

	for _, set := range accepted {
		if len(set) != len(values) {
			continue
		}
		if !slices.ContainsFunc(set, func(name string) bool { _, ok := values[name]; return !ok }) {
			return values, true
		}
	}
	r.addViolation(violationDirectiveArguments(dir.Name, accepted, names, dir.Position))
	return nil, false
}

func (r *reader) getStringValue(node *language.Value) (string, bool) {
	if node.Kind != language.StringValue && node.Kind != language.BlockValue {
		r.addViolation(violationExpectedString(node.Position))
		return "", false
	}
	return node.Raw, true
}

func (r *reader) getBoolValue(node *language.Value) (bool, bool) {
	if node.Kind != language.BooleanValue {
		r.addViolation(violationExpectedBoolean(node.Position))
		return false, false
	}
	return node.Raw == "true", true
}

func (r *reader) getIntValue(node *language.Value) (string, bool) {
	if node.Kind != language.IntValue {
		r.addViolation(violationExpectedInt(node.Position))
		return "", false
	}
	return node.Raw, true
}

func (r *reader) getEnumValue(node *language.Value) (string, bool) {
	if node.Kind != language.EnumValue {
		r.addViolation(violationExpectedEnum(node.Position))
		return "", false
	}
	return node.Raw, true
}
