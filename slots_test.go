package restrpc

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ItemID":      "item_id",
		"Name":        "name",
		"HTTPTimeout": "http_timeout",
		"UserIDList":  "user_id_list",
		"Q":           "q",
	}

	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestTypesEqual(t *testing.T) {
	t.Parallel()

	type a struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	type sameShape struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	type renamed struct {
		ID    int    `json:"id"`
		Label string `json:"label"`
	}
	type retyped struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	type nested struct {
		Inner a `json:"inner"`
	}
	type nestedSame struct {
		Inner sameShape `json:"inner"`
	}

	tests := map[string]struct {
		x, y  reflect.Type
		equal bool
	}{
		"identical":             {reflect.TypeFor[a](), reflect.TypeFor[a](), true},
		"same shape":            {reflect.TypeFor[a](), reflect.TypeFor[sameShape](), true},
		"different json name":   {reflect.TypeFor[a](), reflect.TypeFor[renamed](), false},
		"different field type":  {reflect.TypeFor[a](), reflect.TypeFor[retyped](), false},
		"nested structural":     {reflect.TypeFor[nested](), reflect.TypeFor[nestedSame](), true},
		"slice of same shape":   {reflect.TypeFor[[]a](), reflect.TypeFor[[]sameShape](), true},
		"map of same shape":     {reflect.TypeFor[map[string]a](), reflect.TypeFor[map[string]sameShape](), true},
		"pointer of same shape": {reflect.TypeFor[*a](), reflect.TypeFor[*sameShape](), true},
		"struct vs slice":       {reflect.TypeFor[a](), reflect.TypeFor[[]a](), false},
		"scalar mismatch":       {reflect.TypeFor[int](), reflect.TypeFor[string](), false},
		"identical scalar":      {reflect.TypeFor[int](), reflect.TypeFor[int](), true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.equal, typesEqual(tc.x, tc.y))
		})
	}
}

func TestParseFormatValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		typ  reflect.Type
		raw  string
		want any
	}{
		"string":   {reflect.TypeFor[string](), "foo", "foo"},
		"int":      {reflect.TypeFor[int](), "42", 42},
		"int64":    {reflect.TypeFor[int64](), "-7", int64(-7)},
		"float":    {reflect.TypeFor[float64](), "2.5", 2.5},
		"bool":     {reflect.TypeFor[bool](), "true", true},
		"duration": {reflect.TypeFor[time.Duration](), "1m30s", 90 * time.Second},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v, err := parseValue(tc.typ, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Interface())

			// Formatting the parsed value round-trips to the raw literal.
			assert.Equal(t, tc.raw, formatValue(v))
		})
	}

	_, err := parseValue(reflect.TypeFor[int](), "ten")
	require.Error(t, err)
}

func TestSlotsOf_rejects_non_struct(t *testing.T) {
	t.Parallel()

	_, err := slotsOf(reflect.TypeFor[int]())
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSlotsOf_void_has_no_slots(t *testing.T) {
	t.Parallel()

	slots, err := slotsOf(reflect.TypeFor[Void]())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestParsePathTemplate_placeholders(t *testing.T) {
	t.Parallel()

	names, err := parsePathTemplate("/orgs/{org_id}/items/{item_id}")
	require.NoError(t, err)
	assert.Equal(t, []string{"org_id", "item_id"}, names)

	names, err = parsePathTemplate("/plain")
	require.NoError(t, err)
	assert.Empty(t, names)
}
