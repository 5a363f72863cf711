package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	language "github.com/hanpama/fusiongraph/internal/language"
	"github.com/stretchr/testify/require"
)

func schemaDirectives(t *testing.T, sdl string) language.DirectiveList {
	t.Helper()
	doc, err := language.ParseSchema("names.graphql", sdl)
	require.NoError(t, err)
	require.Len(t, doc.Schema, 1)
	return doc.Schema[0].Directives
}

func TestResolveDirectiveNames(t *testing.T) {
	for _, tc := range []struct {
		name string
		sdl  string
		want DirectiveNames
	}{
		{
			name: "canonical",
			sdl:  `schema @httpClient(subgraph: "a", baseAddress: "http://a") { query: Query }`,
			want: DefaultDirectiveNames(),
		},
		{
			name: "prefix_self",
			sdl:  `schema @foo_fusion(prefix: "foo", prefixSelf: true) { query: Query }`,
			want: DirectiveNames{
				Variable:        "foo_variable",
				Fetch:           "foo_fetch",
				Source:          "foo_source",
				HTTPClient:      "foo_httpClient",
				WebSocketClient: "foo_webSocketClient",
				Fusion:          "foo_foo_fusion",
			},
		},
		{
			name: "unprefixed_fusion_with_prefix",
			sdl:  `schema @fusion(prefix: "bar") { query: Query }`,
			want: DirectiveNames{
				Variable:        "bar_variable",
				Fetch:           "bar_fetch",
				Source:          "bar_source",
				HTTPClient:      "bar_httpClient",
				WebSocketClient: "bar_webSocketClient",
				Fusion:          "fusion",
			},
		},
		{
			name: "inconsistent_prefix_falls_back",
			sdl:  `schema @foo_fusion(prefix: "baz", prefixSelf: true) { query: Query }`,
			want: DefaultDirectiveNames(),
		},
		{
			name: "prefix_self_false_falls_back",
			sdl:  `schema @foo_fusion(prefix: "foo", prefixSelf: false) { query: Query }`,
			want: DefaultDirectiveNames(),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDirectiveNames(schemaDirectives(t, tc.sdl))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("directive names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
