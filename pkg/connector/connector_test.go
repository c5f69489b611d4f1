package connector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sumArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func sumOperation() Operation {
	return Operation{
		Name: "sum",
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			var in sumArgs
			if err := DecodeArgs(args, &in); err != nil {
				return nil, err
			}
			return in.A + in.B, nil
		},
	}
}

func TestOperation_Call(t *testing.T) {
	op := sumOperation()

	t.Run("struct arguments", func(t *testing.T) {
		got, err := op.Call(context.Background(), sumArgs{A: 2, B: 3})
		require.NoError(t, err)
		assert.Equal(t, 5, got)
	})

	t.Run("map arguments", func(t *testing.T) {
		got, err := op.Call(context.Background(), map[string]any{"a": 10, "b": -4})
		require.NoError(t, err)
		assert.Equal(t, 6, got)
	})

	t.Run("raw arguments passed through", func(t *testing.T) {
		got, err := op.Call(context.Background(), json.RawMessage(`{"a":1,"b":1}`))
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	})

	t.Run("nil handler", func(t *testing.T) {
		_, err := Operation{Name: "broken"}.Call(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("unencodable arguments", func(t *testing.T) {
		_, err := op.Call(context.Background(), make(chan int))
		assert.Error(t, err)
	})
}

func TestDecodeArgs(t *testing.T) {
	var in sumArgs
	require.NoError(t, DecodeArgs(nil, &in))
	assert.Equal(t, sumArgs{}, in)

	err := DecodeArgs(json.RawMessage(`{"a":"x"}`), &in)
	assert.Error(t, err)
}

func TestResource_IsTemplate(t *testing.T) {
	assert.False(t, Resource{URI: "greeting://world"}.IsTemplate())
	assert.True(t, Resource{URITemplate: "greeting://{name}"}.IsTemplate())
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(NewConnectionError("postgres", cause))

	assert.Equal(t, "connecting postgres: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "postgres", connErr.Kind)
}
