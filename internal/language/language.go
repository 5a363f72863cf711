package language

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSelectionSet parses a bare selection set such as `a b { c }`.
// Surrounding braces are optional.
func ParseSelectionSet(source string) (SelectionSet, error) {
	text := strings.TrimSpace(source)
	if !strings.HasPrefix(text, "{") {
		text = "{ " + text + " }"
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: text})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 || len(doc.Fragments) != 0 {
		return nil, fmt.Errorf("expected a single selection set in %q", source)
	}
	return doc.Operations[0].SelectionSet, nil
}

// ParseType parses a type reference such as `[ID!]!`.
func ParseType(source string) (*Type, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "query($v: " + source + ") { __typename }"})
	if err != nil {
		return nil, err
	}
	vars := doc.Operations[0].VariableDefinitions
	if len(vars) != 1 {
		return nil, fmt.Errorf("invalid type %q", source)
	}
	return vars[0].Type, nil
}

// ParseValue parses a constant or variable value literal such as `{a: [1, $b]}`.
func ParseValue(source string) (*Value, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{ f(v: " + source + ") }"})
	if err != nil {
		return nil, err
	}
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	if !ok || len(field.Arguments) != 1 {
		return nil, fmt.Errorf("invalid value %q", source)
	}
	return field.Arguments[0].Value, nil
}

// FormatSchema prints a schema document as SDL.
func FormatSchema(doc *SchemaDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String()
}

// FormatSelectionSet prints a selection set as an anonymous operation body.
func FormatSelectionSet(set SelectionSet) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(&ast.QueryDocument{
		Operations: ast.OperationList{{Operation: ast.Query, SelectionSet: set}},
	})
	return strings.TrimPrefix(buf.String(), string(ast.Query)+" ")
}
