package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/domain"
)

func TestMerge_PartialFailureKeepsRemainingLines(t *testing.T) {
	d := setup(t)
	ctx := context.Background()
	require.NoError(t, d.guest.Add(ctx, product("A", 500).Snapshot(1), 2))
	require.NoError(t, d.guest.Add(ctx, product("B", 800).Snapshot(1), 1))
	d.remote.failIDs["B"] = true
	cred := domain.Credential{Kind: domain.CredentialUser, Token: "t"}

	m := NewMerger(d.guest, d.remote, d.bus, zap.NewNop())
	res := m.Merge(ctx, cred)

	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, []string{"B"}, res.Failed)
	left := d.guest.Load(ctx)
	require.Len(t, left, 1)
	assert.Equal(t, "B", left[0].ProductID)
	assert.Equal(t, 2, d.remote.lines[0].Quantity)

	delete(d.remote.failIDs, "B")
	res = m.Merge(ctx, cred)
	assert.Equal(t, 1, res.Merged)
	assert.Empty(t, res.Failed)
	assert.Empty(t, d.guest.Load(ctx))
	assert.Equal(t, []string{"A", "B"}, d.remote.adds)
}

func TestMerge_GuestIsNoop(t *testing.T) {
	d := setup(t)
	ctx := context.Background()
	require.NoError(t, d.guest.Add(ctx, product("A", 500).Snapshot(1), 1))

	res := NewMerger(d.guest, d.remote, d.bus, zap.NewNop()).Merge(ctx, domain.None)
	assert.Zero(t, res.Merged)
	assert.Len(t, d.guest.Load(ctx), 1)
}
