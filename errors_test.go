package restrpc_test

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restrpc/restrpc"
)

func TestCallErrors_share_communication_base(t *testing.T) {
	t.Parallel()

	tests := map[string]error{
		"network": &restrpc.NetworkError{Route: "GET /items/{item_id}", URL: "http://x/items/1", Err: io.EOF},
		"http":    &restrpc.HTTPError{Route: "GET /items/{item_id}", URL: "http://x/items/1", StatusCode: 404},
		"decode":  &restrpc.DecodeError{Route: "GET /items/{item_id}", URL: "http://x/items/1", Body: []byte("x"), Err: io.EOF},
		"validation": &restrpc.ValidationError{
			Route:    "GET /items/{item_id}",
			URL:      "http://x/items/1",
			Expected: reflect.TypeFor[item](),
			Err:      io.EOF,
		},
	}

	for name, err := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, err, restrpc.ErrCommunication)
			assert.Contains(t, err.Error(), "GET /items/{item_id}")
		})
	}
}

func TestCallErrors_unwrap_cause(t *testing.T) {
	t.Parallel()

	err := &restrpc.NetworkError{Route: "GET /x", Err: io.ErrUnexpectedEOF}
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// The base sentinel itself is not a communication-kind error.
	assert.False(t, errors.Is(io.ErrUnexpectedEOF, restrpc.ErrCommunication))
}

func TestBuildErrors_are_distinct_sentinels(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		restrpc.ErrDuplicateRoute,
		restrpc.ErrInvalidMethod,
		restrpc.ErrInvalidPath,
		restrpc.ErrInvalidParameter,
		restrpc.ErrUnknownRoute,
		restrpc.ErrDuplicateHandler,
		restrpc.ErrSignatureMismatch,
		restrpc.ErrIncompleteBinding,
		restrpc.ErrDefinitionFrozen,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
		// Build-phase failures are not communication failures.
		assert.NotErrorIs(t, a, restrpc.ErrCommunication)
	}
}
