package example

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbmesh/pkg/connector"
)

func TestLifecycle(t *testing.T) {
	c := New()
	assert.NoError(t, c.CloseConnection(), "close before setup")
	assert.NoError(t, c.SetupConnection(context.Background()))
	assert.NoError(t, c.SetupConnection(context.Background()))
	assert.NoError(t, c.CloseConnection())
}

func TestTools_Add(t *testing.T) {
	tools := New().Tools()
	require.Len(t, tools, 1)

	add := tools[0]
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "Add two numbers", add.Description)
	assert.True(t, json.Valid(add.InputSchema))

	got, err := add.Call(context.Background(), AddInput{A: 2, B: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = add.Handler(context.Background(), json.RawMessage(`{"a":-7,"b":3}`))
	require.NoError(t, err)
	assert.Equal(t, -4, got)

	_, err = add.Handler(context.Background(), json.RawMessage(`{"a":"two"}`))
	assert.Error(t, err)
}

func TestTools_Pure(t *testing.T) {
	c := New()
	first := c.Tools()
	second := c.Tools()
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Name, second[0].Name)
}

func TestResources_Greeting(t *testing.T) {
	resources := New().Resources()
	require.Len(t, resources, 1)

	res := resources[0]
	assert.True(t, res.IsTemplate())
	assert.Equal(t, greetingTemplate, res.URITemplate)

	text, err := res.Read(context.Background(), "greeting://Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", text)

	_, err = res.Read(context.Background(), "farewell://Ada")
	assert.ErrorIs(t, err, connector.ErrResourceNotFound)
	_, err = res.Read(context.Background(), "greeting://")
	assert.Error(t, err)
}

func TestPrompts_Empty(t *testing.T) {
	assert.Empty(t, New().Prompts())
}
