package fusion

import (
	"strings"

	language "github.com/hanpama/fusiongraph/internal/language"
)

const (
	variableDirective        = "variable"
	fetchDirective           = "fetch"
	sourceDirective          = "source"
	httpClientDirective      = "httpClient"
	webSocketClientDirective = "webSocketClient"
	fusionDirective          = "fusion"

	prefixArg     = "prefix"
	prefixSelfArg = "prefixSelf"
	versionArg    = "version"
)

// DirectiveNames holds the effective names of the configuration directives.
// Several generated configurations can be merged textually; each then carries
// its own prefix so that directive names do not collide.
type DirectiveNames struct {
	Variable        string
	Fetch           string
	Source          string
	HTTPClient      string
	WebSocketClient string
	Fusion          string
}

// DefaultDirectiveNames returns the canonical, unprefixed names.
func DefaultDirectiveNames() DirectiveNames {
	return DirectiveNames{
		Variable:        variableDirective,
		Fetch:           fetchDirective,
		Source:          sourceDirective,
		HTTPClient:      httpClientDirective,
		WebSocketClient: webSocketClientDirective,
		Fusion:          fusionDirective,
	}
}

// ResolveDirectiveNames negotiates the directive names from the directives of
// the schema definition.
//
// A directive `@<prefix>_fusion(prefix: "<prefix>", prefixSelf: true)` prefixes
// every name including the fusion directive's own. An unprefixed
// `@fusion(prefix: "<prefix>")` prefixes every name except `fusion`.
// Without either, the canonical names apply.
func ResolveDirectiveNames(directives language.DirectiveList) DirectiveNames {
	for _, dir := range directives {
		if !strings.HasSuffix(dir.Name, "_"+fusionDirective) {
			continue
		}
		if !boolArgument(dir, prefixSelfArg) {
			continue
		}
		prefix, ok := stringArgument(dir, prefixArg)
		if !ok || prefix+"_"+fusionDirective != dir.Name {
			continue
		}
		names := prefixedDirectiveNames(prefix)
		names.Fusion = prefix + "_" + dir.Name
		return names
	}

	for _, dir := range directives {
		if dir.Name != fusionDirective {
			continue
		}
		if prefix, ok := stringArgument(dir, prefixArg); ok && prefix != "" {
			return prefixedDirectiveNames(prefix)
		}
	}

	return DefaultDirectiveNames()
}

func (n DirectiveNames) all() []string {
	return []string{n.Variable, n.Fetch, n.Source, n.HTTPClient, n.WebSocketClient, n.Fusion}
}

func prefixedDirectiveNames(prefix string) DirectiveNames {
	p := prefix + "_"
	return DirectiveNames{
		Variable:        p + variableDirective,
		Fetch:           p + fetchDirective,
		Source:          p + sourceDirective,
		HTTPClient:      p + httpClientDirective,
		WebSocketClient: p + webSocketClientDirective,
		Fusion:          fusionDirective,
	}
}

func stringArgument(dir *language.Directive, name string) (string, bool) {
	arg := dir.Arguments.ForName(name)
	if arg == nil || arg.Value == nil || arg.Value.Kind != language.StringValue {
		return "", false
	}
	return arg.Value.Raw, true
}

func boolArgument(dir *language.Directive, name string) bool {
	arg := dir.Arguments.ForName(name)
	if arg == nil || arg.Value == nil || arg.Value.Kind != language.BooleanValue {
		return false
	}
	return arg.Value.Raw == "true"
}
