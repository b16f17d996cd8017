package identity

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRegistry(client), mr
}

func TestRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	reg, mr := newTestRegistry(t)

	require.NoError(t, reg.Register(ctx, "u1"))
	assert.True(t, mr.Exists("identity:u1"))

	ok, err := reg.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, reg.DeleteIdentity(ctx, "u1"))

	ok, err = reg.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_DeleteUnknown(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.DeleteIdentity(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
