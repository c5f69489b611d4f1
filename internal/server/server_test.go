package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbmesh/pkg/health"
)

func TestVersion(t *testing.T) {
	// Version should be set to "dev" by default
	if Version != "dev" {
		t.Errorf("expected Version 'dev', got %q", Version)
	}
}

func TestNewMCPServer(t *testing.T) {
	srv := NewMCPServer("dbmesh-test", nil)
	require.NotNil(t, srv)

	session, cleanup := connectTestClient(t, srv)
	defer cleanup()

	info := session.InitializeResult().ServerInfo
	assert.Equal(t, "dbmesh-test", info.Name)
	assert.Equal(t, Version, info.Version)
}

func TestServeHTTP_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeHTTP(ctx, addr, NewHTTPHandler(NewMCPServer("dbmesh-test", nil), "", health.NewChecker()))
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP did not return after cancel")
	}
}

func TestServeHTTP_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	err = ServeHTTP(context.Background(), ln.Addr().String(), NewHTTPHandler(NewMCPServer("dbmesh-test", nil), "", nil))
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
