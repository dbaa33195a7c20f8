package restrpc_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restrpc/restrpc"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type readItemReq struct {
	ItemID int    `path:"item_id"`
	Q      string `query:"q" default:""`
}

func TestDefine_all_methods(t *testing.T) {
	t.Parallel()

	type noParams struct{}

	tests := map[string]struct {
		define func(def *restrpc.Definition) error
	}{
		"GET":    {define: func(def *restrpc.Definition) error { return restrpc.Get[noParams, item](def, "/test") }},
		"POST":   {define: func(def *restrpc.Definition) error { return restrpc.Post[noParams, item](def, "/test") }},
		"PUT":    {define: func(def *restrpc.Definition) error { return restrpc.Put[noParams, item](def, "/test") }},
		"PATCH":  {define: func(def *restrpc.Definition) error { return restrpc.Patch[noParams, item](def, "/test") }},
		"DELETE": {define: func(def *restrpc.Definition) error { return restrpc.Delete[noParams, item](def, "/test") }},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			def := restrpc.NewDefinition()
			require.NoError(t, tc.define(def))
			require.Equal(t, 1, def.Len())
			assert.Equal(t, name, def.Routes()[0].Method())
		})
	}
}

func TestDefine_duplicate_route(t *testing.T) {
	t.Parallel()

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[readItemReq, item](def, "/items/{item_id}"))

	err := restrpc.Get[readItemReq, item](def, "/items/{item_id}")
	require.ErrorIs(t, err, restrpc.ErrDuplicateRoute)
	assert.ErrorContains(t, err, "GET /items/{item_id}")

	// Same path under a different method is a distinct route.
	require.NoError(t, restrpc.Delete[readItemReq, restrpc.Void](def, "/items/{item_id}"))
}

func TestDefine_invalid_method(t *testing.T) {
	t.Parallel()

	def := restrpc.NewDefinition()
	err := restrpc.Define[restrpc.Void, item](def, "HEAD", "/items")
	require.ErrorIs(t, err, restrpc.ErrInvalidMethod)
}

func TestDefine_invalid_path(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":                 "",
		"missing leading slash": "items",
		"unclosed placeholder":  "/items/{item_id",
		"empty placeholder":     "/items/{}",
		"nested placeholder":    "/items/{a{b}}",
		"unmatched close":       "/items/id}",
		"repeated placeholder":  "/pairs/{id}/{id}",
		"slash in placeholder":  "/items/{a/b}",
	}

	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			def := restrpc.NewDefinition()
			err := restrpc.Get[restrpc.Void, item](def, path)
			require.ErrorIs(t, err, restrpc.ErrInvalidPath)
		})
	}
}

func TestDefine_invalid_parameters(t *testing.T) {
	t.Parallel()

	type bodyReq struct {
		Body item
	}
	type orphanPathTag struct {
		UserID int `path:"user_id"`
	}
	type orphanUntagged struct {
		UserID int
	}
	type defaultOnPath struct {
		ItemID int `path:"item_id" default:"1"`
	}
	type badDefault struct {
		Limit int `query:"limit" default:"ten"`
	}
	type unsupportedType struct {
		Filter []string `query:"filter"`
	}
	type doubleTag struct {
		V string `path:"v" query:"v"`
	}

	tests := map[string]struct {
		define func(def *restrpc.Definition) error
	}{
		"body on GET": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[bodyReq, item](def, "/items") },
		},
		"body on DELETE": {
			define: func(def *restrpc.Definition) error { return restrpc.Delete[bodyReq, item](def, "/items") },
		},
		"path tag without placeholder": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[orphanPathTag, item](def, "/items") },
		},
		"untagged field without placeholder": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[orphanUntagged, item](def, "/items") },
		},
		"placeholder without parameter": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[restrpc.Void, item](def, "/items/{item_id}") },
		},
		"default on path parameter": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[defaultOnPath, item](def, "/items/{item_id}") },
		},
		"default does not parse as value type": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[badDefault, item](def, "/items") },
		},
		"unsupported parameter type": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[unsupportedType, item](def, "/items") },
		},
		"two kind tags on one field": {
			define: func(def *restrpc.Definition) error { return restrpc.Get[doubleTag, item](def, "/items/{v}") },
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			def := restrpc.NewDefinition()
			err := tc.define(def)
			require.ErrorIs(t, err, restrpc.ErrInvalidParameter)
			assert.Equal(t, 0, def.Len())
		})
	}
}

func TestDefine_body_allowed_on_mutating_methods(t *testing.T) {
	t.Parallel()

	type createReq struct {
		Body item
	}

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Post[createReq, item](def, "/items"))
	require.NoError(t, restrpc.Put[createReq, item](def, "/items"))
	require.NoError(t, restrpc.Patch[createReq, item](def, "/items"))
}

func TestDefine_untagged_field_is_path_parameter(t *testing.T) {
	t.Parallel()

	type req struct {
		ItemID int // implicitly the {item_id} path parameter
	}

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[req, item](def, "/items/{item_id}"))

	slots := def.Routes()[0].Slots()
	require.Len(t, slots, 1)
	assert.Equal(t, "item_id", slots[0].Name)
	assert.Equal(t, restrpc.KindPath, slots[0].Kind)
}

func TestDefine_slot_metadata(t *testing.T) {
	t.Parallel()

	type req struct {
		ItemID int    `path:"item_id" title:"Item ID" desc:"numeric item key"`
		Token  string `header:"X-Token" alias:"X-Auth-Token" deprecated:"true"`
		Limit  int    `query:"limit" default:"25"`
	}

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[req, item](def, "/items/{item_id}"))

	slots := def.Routes()[0].Slots()
	require.Len(t, slots, 3)

	assert.Equal(t, "Item ID", slots[0].Title)
	assert.Equal(t, "numeric item key", slots[0].Description)

	assert.Equal(t, restrpc.KindHeader, slots[1].Kind)
	assert.Equal(t, "X-Auth-Token", slots[1].Alias)
	assert.True(t, slots[1].Deprecated)

	assert.Equal(t, restrpc.KindQuery, slots[2].Kind)
	assert.True(t, slots[2].HasDefault)
	assert.Equal(t, "25", slots[2].Default)
}

func TestDefinition_freeze(t *testing.T) {
	t.Parallel()

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[restrpc.Void, item](def, "/items"))

	def.Freeze()

	err := restrpc.Get[restrpc.Void, item](def, "/other")
	require.ErrorIs(t, err, restrpc.ErrDefinitionFrozen)
	assert.Equal(t, 1, def.Len())
}

func TestDefinition_routes_in_insertion_order(t *testing.T) {
	t.Parallel()

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[restrpc.Void, item](def, "/b"))
	require.NoError(t, restrpc.Get[restrpc.Void, item](def, "/a"))
	require.NoError(t, restrpc.Post[restrpc.Void, item](def, "/a"))

	var got []string
	for _, r := range def.Routes() {
		got = append(got, r.Method()+" "+r.Path())
	}
	assert.Equal(t, []string{"GET /b", "GET /a", "POST /a"}, got)
}

func TestRouteDescriptor_accessors(t *testing.T) {
	t.Parallel()

	def := restrpc.NewDefinition()
	require.NoError(t, restrpc.Get[readItemReq, item](def, "/items/{item_id}"))

	route := def.Routes()[0]
	assert.Equal(t, http.MethodGet, route.Method())
	assert.Equal(t, "/items/{item_id}", route.Path())
	assert.Equal(t, "GET /items/{item_id}", route.String())
	assert.Equal(t, "restrpc_test.item", route.Returns().String())

	// Slots returns a copy; mutating it must not affect the descriptor.
	slots := route.Slots()
	slots[0].Name = "mutated"
	assert.Equal(t, "item_id", route.Slots()[0].Name)
}
