package fusion_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	eventbus "github.com/hanpama/fusiongraph/internal/eventbus"
	events "github.com/hanpama/fusiongraph/internal/events"
	"github.com/hanpama/fusiongraph/internal/fusion"
	"github.com/stretchr/testify/require"
)

const catalogConfig = `
schema @httpClient(subgraph: "catalog", baseAddress: "http://catalog") {
  query: Query
}

type Query {
  node(id: ID!): Entity
    @fetch(select: "nodeById(id: $id) { ...Placeholder }", subgraph: "catalog")
    @variable(name: "id", argument: "id")
}

type Entity @source(subgraph: "catalog") {
  id: ID! @source(subgraph: "catalog")
  name: String @source(subgraph: "catalog")
}
`

func mustReadData(filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("failed to read test data file %s: %v", filename, err))
	}
	return string(data)
}

func loadSupergraph(t *testing.T) *fusion.Configuration {
	t.Helper()
	cfg, err := fusion.LoadContext(t.Context(), "supergraph.graphql", mustReadData("testdata/supergraph.graphql"))
	require.NoError(t, err)
	return cfg
}

func TestLoadCatalog(t *testing.T) {
	cfg, err := fusion.Load(catalogConfig)
	require.NoError(t, err)

	query, err := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	require.NoError(t, err)
	node, ok := query.Fields().Get("node")
	require.True(t, ok)
	require.True(t, node.Resolvers().ContainsResolvers("catalog"))
	require.Equal(t, 1, node.Resolvers().Count())

	v, ok := node.Variables().Get("id")
	require.True(t, ok)
	require.Equal(t, fusion.ArgumentVariable, v.Kind)
	require.Equal(t, "id", v.Argument)
	require.Equal(t, "ID!", v.Type.String())
}

func TestLoadSupergraph(t *testing.T) {
	cfg := loadSupergraph(t)

	require.Equal(t, []string{"accounts", "reviews", "catalog"}, cfg.SubgraphNames())
	require.Equal(t, []string{"Query", "Subscription", "User", "Review", "Product"}, cfg.TypeNames())
	require.Equal(t, fusion.DefaultDirectiveNames(), cfg.DirectiveNames())
	require.NotZero(t, cfg.Generation())

	clients := cfg.HTTPClients()
	require.Len(t, clients, 3)
	require.Equal(t, "catalog-http", clients[2].ClientName)
	require.Equal(t, "accounts", clients[0].ClientName)
	require.Equal(t, "http://reviews:4002/graphql", clients[1].BaseAddress.String())

	ws, ok := cfg.TryGetWebSocketClient("reviews")
	require.True(t, ok)
	require.Equal(t, "ws", ws.BaseAddress.Scheme)
	_, ok = cfg.TryGetWebSocketClient("accounts")
	require.False(t, ok)
}

func TestResolverGrouping(t *testing.T) {
	cfg := loadSupergraph(t)

	query, err := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	require.NoError(t, err)
	userByID, ok := query.Fields().Get("userById")
	require.True(t, ok)
	require.Equal(t, 2, userByID.Resolvers().Count())
	require.Equal(t, []string{"accounts", "reviews"}, userByID.Resolvers().Subgraphs())
	require.False(t, userByID.Resolvers().ContainsResolvers("catalog"))

	user, err := fusion.GetType[*fusion.ObjectType](cfg, "User")
	require.NoError(t, err)
	require.True(t, user.IsEntity())
	require.Equal(t, 2, user.Resolvers().Count())
	accounts, ok := user.Resolvers().TryGetResolvers("accounts")
	require.True(t, ok)
	require.Len(t, accounts, 2)

	batch, ok := user.Resolvers().Find("accounts", fusion.BatchResolver)
	require.True(t, ok)
	require.Equal(t, []string{"User_id"}, batch.Requires())
	_, ok = user.Resolvers().Find("reviews", fusion.BatchResolver)
	require.False(t, ok)

	sub, err := fusion.GetType[*fusion.ObjectType](cfg, "Subscription")
	require.NoError(t, err)
	reviewAdded, _ := sub.Fields().Get("reviewAdded")
	rs, ok := reviewAdded.Resolvers().TryGetResolvers("reviews")
	require.True(t, ok)
	require.Equal(t, fusion.SubscribeResolver, rs[0].Kind())
}

func TestVariables(t *testing.T) {
	cfg := loadSupergraph(t)

	user, err := fusion.GetType[*fusion.ObjectType](cfg, "User")
	require.NoError(t, err)
	v, ok := user.Variables().Get("User_id")
	require.True(t, ok)
	require.Equal(t, fusion.FieldVariable, v.Kind)
	require.Equal(t, "accounts", v.Subgraph)
	require.Equal(t, "id", v.Select.Name)
	require.Equal(t, "ID!", v.Type.String())

	query, _ := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	products, _ := query.Fields().Get("products")
	require.Equal(t, []string{"first", "after"}, products.Arguments())
	first, ok := products.Variables().Get("first")
	require.True(t, ok)
	require.Equal(t, "Int", first.Type.String())
}

func TestTypeNameTranslation(t *testing.T) {
	cfg := loadSupergraph(t)

	require.Equal(t, "User", cfg.GetTypeName("reviews", "Author"))
	require.Equal(t, "Author", cfg.GetSubgraphTypeName("reviews", "User"))

	// identity when no remapping exists
	require.Equal(t, "User", cfg.GetTypeName("accounts", "User"))
	require.Equal(t, "User", cfg.GetSubgraphTypeName("accounts", "User"))
	require.Equal(t, "Author", cfg.GetTypeName("accounts", "Author"))
	require.Equal(t, "Unknown", cfg.GetSubgraphTypeName("nope", "Unknown"))

	user, _ := fusion.GetType[*fusion.ObjectType](cfg, "User")
	b, ok := user.Bindings().Get("reviews")
	require.True(t, ok)
	require.Equal(t, fusion.MemberBinding{Subgraph: "reviews", Name: "Author"}, b)

	product, _ := fusion.GetType[*fusion.ObjectType](cfg, "Product")
	name, _ := product.Fields().Get("name")
	b, ok = name.Bindings().Get("catalog")
	require.True(t, ok)
	require.Equal(t, "title", b.Name)
}

func TestGetAvailableSubgraphs(t *testing.T) {
	cfg := loadSupergraph(t)

	require.Equal(t, []string{"accounts", "reviews"}, cfg.GetAvailableSubgraphs("User"))

	none := cfg.GetAvailableSubgraphs("Product")
	require.NotNil(t, none)
	require.Empty(t, none)
	require.NotNil(t, cfg.GetAvailableSubgraphs("Missing"))

	want := []fusion.SubgraphInfo{
		{Name: "accounts", Entities: []string{"User"}},
		{Name: "reviews", Entities: []string{"User"}},
		{Name: "catalog"},
	}
	if diff := cmp.Diff(want, cfg.Subgraphs()); diff != "" {
		t.Errorf("subgraph infos mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeNameField(t *testing.T) {
	cfg := loadSupergraph(t)

	review, err := fusion.GetType[*fusion.ObjectType](cfg, "Review")
	require.NoError(t, err)
	typename, ok := review.Fields().Get("__typename")
	require.True(t, ok)
	require.True(t, typename.Flags().Has(fusion.FieldFlagTypeName))
	require.Equal(t, []string{"accounts", "reviews", "catalog"}, typename.Bindings().Subgraphs())

	body, _ := review.Fields().Get("body")
	require.False(t, body.Flags().Has(fusion.FieldFlagTypeName))
}

func TestGetType(t *testing.T) {
	cfg := loadSupergraph(t)

	_, err := fusion.GetType[*fusion.ObjectType](cfg, "Missing")
	require.ErrorIs(t, err, fusion.ErrTypeNotFound)

	_, ok := fusion.TryGetType[*fusion.ObjectType](cfg, "Missing")
	require.False(t, ok)

	named, ok := fusion.TryGetType[fusion.NamedType](cfg, "Product")
	require.True(t, ok)
	require.Equal(t, "Product", named.Name())
	require.Equal(t, 1, named.Bindings().Len())
}

func TestPrefixedConfiguration(t *testing.T) {
	cfg, err := fusion.Load(`
schema
  @foo_fusion(prefix: "foo", prefixSelf: true)
  @foo_httpClient(subgraph: "a", baseAddress: "http://a")
  @httpClient(subgraph: "ignored", baseAddress: "http://ignored") {
  query: Query
}

type Query {
  a(id: ID!): String
    @foo_source(subgraph: "a")
    @foo_variable(name: "id", argument: "id")
    @foo_fetch(subgraph: "a", select: "a(id: $id)")
    @fetch(subgraph: "unknown", select: "ignored")
}
`)
	require.NoError(t, err)
	require.Equal(t, "foo_foo_fusion", cfg.DirectiveNames().Fusion)
	require.Equal(t, []string{"a"}, cfg.SubgraphNames())

	query, _ := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	a, _ := query.Fields().Get("a")
	require.True(t, a.Resolvers().ContainsResolvers("a"))
	require.Equal(t, 1, a.Resolvers().Count())
	require.True(t, a.Variables().Contains("id"))
}

func TestLoadStructuralErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		sdl  string
		want error
	}{
		{
			name: "no_schema_definition",
			sdl:  `type Query { a: String }`,
			want: fusion.ErrNoSchemaDefinition,
		},
		{
			name: "no_clients",
			sdl:  `schema @webSocketClient(subgraph: "a", baseAddress: "ws://a") { query: Query } type Query { a: String }`,
			want: fusion.ErrNoClients,
		},
		{
			name: "no_types",
			sdl:  `schema @httpClient(subgraph: "a", baseAddress: "http://a") { query: Query } scalar Query`,
			want: fusion.ErrNoTypes,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fusion.Load(tc.sdl)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadViolations(t *testing.T) {
	const header = `schema @httpClient(subgraph: "a", baseAddress: "http://a") { query: Query }
`
	for _, tc := range []struct {
		name    string
		sdl     string
		wantErr string
		line    int
	}{
		{
			name:    "extra_argument",
			sdl:     header + "type Query {\n  a: String @source(subgraph: \"a\", extra: \"x\")\n}",
			wantErr: "Directive @source expects arguments (subgraph) or (subgraph, name) but got (subgraph, extra)",
			line:    3,
		},
		{
			name:    "missing_argument",
			sdl:     header + "type Query {\n  a: String @fetch(select: \"a\")\n}",
			wantErr: "Directive @fetch expects arguments",
			line:    3,
		},
		{
			name:    "wrong_literal_kind",
			sdl:     header + "type Query {\n  a: String @source(subgraph: 1)\n}",
			wantErr: "Expected a string value",
			line:    3,
		},
		{
			name:    "duplicate_argument",
			sdl:     header + "type Query {\n  a: String @source(subgraph: \"a\", subgraph: \"a\")\n}",
			wantErr: "specified more than once",
			line:    3,
		},
		{
			name:    "unknown_subgraph",
			sdl:     header + "type Query {\n  a: String @source(subgraph: \"b\")\n}",
			wantErr: `references subgraph "b" which has no client`,
			line:    3,
		},
		{
			name:    "invalid_base_address",
			sdl:     "schema @httpClient(subgraph: \"a\", baseAddress: \"relative/path\") { query: Query }\ntype Query { a: String }",
			wantErr: "Invalid baseAddress",
			line:    1,
		},
		{
			name:    "duplicate_client",
			sdl:     "schema\n  @httpClient(subgraph: \"a\", baseAddress: \"http://a\")\n  @httpClient(subgraph: \"a\", baseAddress: \"http://b\") { query: Query }\ntype Query { a: String }",
			wantErr: `Duplicate HTTP client for subgraph "a"`,
			line:    3,
		},
		{
			name:    "unknown_fetch_kind",
			sdl:     header + "type Query {\n  a: String @fetch(subgraph: \"a\", select: \"a\", kind: LATER)\n}",
			wantErr: "Unknown fetch kind LATER",
			line:    3,
		},
		{
			name:    "invalid_select",
			sdl:     header + "type Query {\n  a: String @fetch(subgraph: \"a\", select: \"a {\")\n}",
			wantErr: "Invalid select",
			line:    3,
		},
		{
			name:    "multiple_placeholders",
			sdl:     header + "type Query {\n  a: String @fetch(subgraph: \"a\", select: \"a { ...A ...B }\")\n}",
			wantErr: "at most one placeholder",
			line:    3,
		},
		{
			name:    "placeholder_not_last",
			sdl:     header + "type Query {\n  a: String @fetch(subgraph: \"a\", select: \"a { ...A id }\")\n}",
			wantErr: "must be the last selection",
			line:    3,
		},
		{
			name:    "undefined_variable",
			sdl:     header + "type Query {\n  a(id: ID): String\n    @fetch(subgraph: \"a\", select: \"a(id: $id)\")\n}",
			wantErr: "requires variable $id which is not defined",
			line:    4,
		},
		{
			name:    "unknown_argument",
			sdl:     header + "type Query {\n  a: String @variable(name: \"id\", argument: \"id\")\n}",
			wantErr: `refers to argument "id" which is not defined on Query.a`,
			line:    3,
		},
		{
			name:    "argument_variable_on_type",
			sdl:     header + "type Query @variable(name: \"id\", argument: \"id\") {\n  a: String\n}",
			wantErr: "cannot be derived from an argument",
			line:    2,
		},
		{
			name:    "variable_select_not_field",
			sdl:     header + "type Query @variable(name: \"id\", select: \"a b\", type: \"ID\", subgraph: \"a\") {\n  a: String\n}",
			wantErr: "must be a single field",
			line:    2,
		},
		{
			name:    "invalid_variable_type",
			sdl:     header + "type Query @variable(name: \"id\", select: \"a\", type: \"[ID\", subgraph: \"a\") {\n  a: String\n}",
			wantErr: `Invalid type "[ID"`,
			line:    2,
		},
		{
			name:    "duplicate_binding",
			sdl:     header + "type Query @source(subgraph: \"a\") @source(subgraph: \"a\", name: \"Root\") {\n  a: String\n}",
			wantErr: `bound to subgraph "a" more than once`,
			line:    2,
		},
		{
			name:    "duplicate_variable",
			sdl:     header + "type Query {\n  a(id: ID): String\n    @variable(name: \"id\", argument: \"id\")\n    @variable(name: \"id\", argument: \"id\")\n}",
			wantErr: `Variable "id" is defined more than once on Query.a`,
			line:    5,
		},
		{
			name:    "duplicate_fetch_same_kind",
			sdl:     header + "type Query {\n  a: String\n    @fetch(subgraph: \"a\", select: \"a\")\n    @fetch(subgraph: \"a\", select: \"b\")\n}",
			wantErr: `has more than one FETCH fetch for subgraph "a"`,
			line:    5,
		},
		{
			name:    "duplicate_type",
			sdl:     header + "type Query { a: String }\ntype Query { b: String }",
			wantErr: "Type Query is defined more than once",
			line:    3,
		},
		{
			name:    "client_on_type",
			sdl:     header + "type Query @httpClient(subgraph: \"a\", baseAddress: \"http://a\") {\n  a: String\n}",
			wantErr: "Directive @httpClient is not allowed on type Query, expected @source, @variable, @fetch",
			line:    2,
		},
		{
			name:    "fusion_on_field",
			sdl:     header + "type Query {\n  a: String @fusion(prefix: \"x\")\n}",
			wantErr: "Directive @fusion is not allowed on field Query.a",
			line:    3,
		},
		{
			name:    "source_on_schema",
			sdl:     "schema\n  @httpClient(subgraph: \"a\", baseAddress: \"http://a\")\n  @source(subgraph: \"a\") { query: Query }\ntype Query { a: String }",
			wantErr: "Directive @source is not allowed on the schema definition, expected @httpClient, @webSocketClient, @fusion",
			line:    3,
		},
		{
			name:    "multiple_schema_definitions",
			sdl:     header + "schema { query: Query }\ntype Query { a: String }",
			wantErr: "exactly one schema definition",
			line:    2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fusion.LoadContext(context.Background(), "bad.graphql", tc.sdl)
			require.Error(t, err)

			var verr fusion.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			require.Contains(t, err.Error(), tc.wantErr)

			var found bool
			for _, v := range verr {
				if v.Line == tc.line && v.File == "bad.graphql" {
					found = true
				}
			}
			require.True(t, found, "no violation on line %d: %v", tc.line, err)
		})
	}
}

func TestForeignDirectivesIgnored(t *testing.T) {
	cfg, err := fusion.Load(`
schema @httpClient(subgraph: "a", baseAddress: "http://a") @link(url: "https://specs.example/fed") { query: Query }
type Query @key(fields: "id") {
  id: ID! @source(subgraph: "a") @deprecated(reason: "use node")
}
`)
	require.NoError(t, err)
	query, err := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	require.NoError(t, err)
	id, ok := query.Fields().Get("id")
	require.True(t, ok)
	require.True(t, id.Bindings().ContainsSubgraph("a"))
}

func TestIntrospectionFields(t *testing.T) {
	cfg, err := fusion.Load(`
schema @httpClient(subgraph: "a", baseAddress: "http://a") { query: Query }
type Query {
  __schema: __Schema!
  __type(name: String!): __Type
  a: String @source(subgraph: "a")
}
`)
	require.NoError(t, err)
	query, err := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	require.NoError(t, err)

	for _, name := range []string{"__schema", "__type"} {
		f, ok := query.Fields().Get(name)
		require.True(t, ok, name)
		require.True(t, f.Flags().Has(fusion.FieldFlagIntrospection), name)
		require.False(t, f.Flags().Has(fusion.FieldFlagTypeName), name)
	}
	a, _ := query.Fields().Get("a")
	require.Zero(t, a.Flags())
	typename, _ := query.Fields().Get("__typename")
	require.True(t, typename.Flags().Has(fusion.FieldFlagTypeName))
	require.False(t, typename.Flags().Has(fusion.FieldFlagIntrospection))
}

func TestDuplicateFetchDifferentKinds(t *testing.T) {
	cfg, err := fusion.Load(`
schema @httpClient(subgraph: "a", baseAddress: "http://a") { query: Query }
type Query {
  a: String
    @fetch(subgraph: "a", select: "a")
    @fetch(subgraph: "a", select: "as", kind: BATCH)
}
`)
	require.NoError(t, err)
	query, _ := fusion.GetType[*fusion.ObjectType](cfg, "Query")
	a, _ := query.Fields().Get("a")
	require.Equal(t, 1, a.Resolvers().Count())
	rs, _ := a.Resolvers().TryGetResolvers("a")
	require.Len(t, rs, 2)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fusion.LoadContext(ctx, "", catalogConfig)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFailedLoadsReportGeneration(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var finished []events.ConfigurationLoadFinish
	eventbus.Subscribe(func(_ context.Context, e events.ConfigurationLoadFinish) {
		finished = append(finished, e)
	})

	before, err := fusion.Load(catalogConfig)
	require.NoError(t, err)
	_, err = fusion.Load(`type Query { a: String }`)
	require.ErrorIs(t, err, fusion.ErrNoSchemaDefinition)
	after, err := fusion.Load(catalogConfig)
	require.NoError(t, err)

	require.Len(t, finished, 3)
	failed := finished[1]
	require.ErrorIs(t, failed.Err, fusion.ErrNoSchemaDefinition)
	require.Greater(t, failed.Generation, before.Generation())
	require.Greater(t, after.Generation(), failed.Generation)
	require.Equal(t, before.Generation(), finished[0].Generation)
	require.Equal(t, 2, finished[2].Types)
}

func TestGenerationsIncrease(t *testing.T) {
	a, err := fusion.Load(catalogConfig)
	require.NoError(t, err)
	b, err := fusion.Load(catalogConfig)
	require.NoError(t, err)
	require.Greater(t, b.Generation(), a.Generation())
}
