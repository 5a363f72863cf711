package fusion

import (
	"fmt"
	"strings"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// Common reusable violation constructors.
// NOTE: Keep messages stable, tests match on substrings.

func violationMultipleSchemaDefinitions(pos *language.Position) *Violation {
	return violationWithPosition("A configuration must have exactly one schema definition", pos)
}

func violationUnexpectedDirective(actual, location string, expected []string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s is not allowed on %s, expected @%s", actual, location, strings.Join(expected, ", @")),
		pos,
	)
}

func violationDirectiveArguments(directive string, accepted [][]string, actual []string, pos *language.Position) *Violation {
	sets := make([]string, len(accepted))
	for i, names := range accepted {
		sets[i] = "(" + strings.Join(names, ", ") + ")"
	}
	return violationWithPosition(
		fmt.Sprintf("Directive @%s expects arguments %s but got (%s)", directive, strings.Join(sets, " or "), strings.Join(actual, ", ")),
		pos,
	)
}

func violationDuplicateDirectiveArgument(directive, arg string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Argument '%s' is specified more than once in @%s", arg, directive),
		pos,
	)
}

func violationExpectedString(pos *language.Position) *Violation {
	return violationWithPosition("Expected a string value", pos)
}

func violationExpectedBoolean(pos *language.Position) *Violation {
	return violationWithPosition("Expected a boolean value", pos)
}

func violationExpectedInt(pos *language.Position) *Violation {
	return violationWithPosition("Expected an integer value", pos)
}

func violationExpectedEnum(pos *language.Position) *Violation {
	return violationWithPosition("Expected an enum value", pos)
}

func violationInvalidBaseAddress(subgraph, address string, err error, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid baseAddress %q for subgraph %q: %v", address, subgraph, err),
		pos,
	)
}

func violationDuplicateClient(kind, subgraph string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Duplicate %s client for subgraph %q", kind, subgraph),
		pos,
	)
}

func violationUnknownSubgraph(directive, subgraph string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Directive @%s references subgraph %q which has no client", directive, subgraph),
		pos,
	)
}

func violationDuplicateBinding(member, subgraph string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Member %s is bound to subgraph %q more than once", member, subgraph),
		pos,
	)
}

func violationDuplicateVariable(name, member string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Variable %q is defined more than once on %s", name, member),
		pos,
	)
}

func violationArgumentVariableOnType(name, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Variable %q on type %s cannot be derived from an argument", name, typeName),
		pos,
	)
}

func violationUnknownArgument(argument, member string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Variable refers to argument %q which is not defined on %s", argument, member),
		pos,
	)
}

func violationInvalidSelect(directive, source string, err error, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid select %q in @%s: %v", source, directive, err),
		pos,
	)
}

func violationVariableSelectNotField(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Select of variable %q must be a single field", name),
		pos,
	)
}

func violationInvalidType(source string, err error, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Invalid type %q: %v", source, err),
		pos,
	)
}

func violationUnknownResolverKind(kind string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Unknown fetch kind %s, expected one of FETCH, BATCH, SUBSCRIBE", kind),
		pos,
	)
}

func violationMultiplePlaceholders(pos *language.Position) *Violation {
	return violationWithPosition("A fetch template can contain at most one placeholder", pos)
}

func violationPlaceholderNotLast(pos *language.Position) *Violation {
	return violationWithPosition("The placeholder must be the last selection of its selection set", pos)
}

func violationDuplicateResolver(member, subgraph string, kind ResolverKind, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Member %s has more than one %s fetch for subgraph %q", member, kind, subgraph),
		pos,
	)
}

func violationUndefinedVariable(member, variable string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Fetch on %s requires variable $%s which is not defined", member, variable),
		pos,
	)
}

func violationDuplicateType(name string, pos *language.Position) *Violation {
	return violationWithPosition(
		fmt.Sprintf("Type %s is defined more than once", name),
		pos,
	)
}
