package service

import (
	"context"
	"testing"

	"copycorner/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productCodes(t *testing.T, env *testEnv) map[string]string {
	t.Helper()
	list, _, err := env.products.List(context.Background(), "", "", nil)
	require.NoError(t, err)
	codes := make(map[string]string, len(list))
	for _, p := range list {
		codes[p.Name] = p.Code
	}
	return codes
}

func TestCodesFollowCreationOrder(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "A", nil, 1, 0)
	env.product(t, "B", nil, 1, 0)
	env.product(t, "C", nil, 1, 0)

	assert.Equal(t, map[string]string{"A": "PROD_001", "B": "PROD_002", "C": "PROD_003"}, productCodes(t, env))
}

func TestPurgeRenumbersRemainingCodes(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "A", nil, 1, 0)
	b := env.product(t, "B", nil, 1, 0)
	env.product(t, "C", nil, 1, 0)

	require.NoError(t, env.products.Purge(context.Background(), testActor, b.ID, false))

	assert.Equal(t, map[string]string{"A": "PROD_001", "C": "PROD_002"}, productCodes(t, env))
}

func TestArchiveAndRestoreRenumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.product(t, "A", nil, 1, 0)
	env.product(t, "B", nil, 1, 0)
	env.product(t, "C", nil, 1, 0)

	archived, err := env.products.Archive(ctx, testActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "PROD_001-ARCHIVED", archived.Code)
	assert.Equal(t, map[string]string{"B": "PROD_001", "C": "PROD_002"}, productCodes(t, env))

	_, err = env.products.Restore(ctx, testActor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "PROD_001", "B": "PROD_002", "C": "PROD_003"}, productCodes(t, env))
}

func TestRenumberFailureKeepsTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.product(t, "A", nil, 1, 0)
	env.product(t, "B", nil, 1, 0)

	env.store.failSetCode = true
	archived, err := env.products.Archive(ctx, testActor, a.ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	// B keeps its stale code until the next successful pass
	assert.Equal(t, map[string]string{"B": "PROD_002"}, productCodes(t, env))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RenumberFailures.WithLabelValues("product")))

	env.store.failSetCode = false
	changed, err := env.products.Renumber(ctx, testActor)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, map[string]string{"B": "PROD_001"}, productCodes(t, env))
	assert.Len(t, env.store.actions(model.ActionRenumber), 1)
}

func TestRenumberOnDenseCodesChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "A", nil, 1, 0)

	changed, err := env.products.Renumber(context.Background(), testActor)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestNextRejectsUncodedKind(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.allocator.Next(context.Background(), model.KindCategory)
	require.Error(t, err)
}

func TestQueueNumbersNeverRepeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	create := func(name string) *TransactionResponse {
		txn, err := env.transactions.Create(ctx, testActor, TransactionRequest{CustomerName: name, Quantity: 1})
		require.NoError(t, err)
		return txn
	}

	first := create("Ana")
	second := create("Ben")
	assert.Equal(t, "T-001", first.Code)
	assert.Equal(t, "001", first.QueueNumber)
	assert.Equal(t, "T-002", second.Code)
	assert.Equal(t, "002", second.QueueNumber)

	require.NoError(t, env.transactions.Purge(ctx, testActor, first.ID, false))

	third := create("Cy")
	assert.Equal(t, "T-002", third.Code)
	assert.Equal(t, "003", third.QueueNumber)

	again, err := env.transactions.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "T-001", again.Code)
	assert.Equal(t, "002", again.QueueNumber)
}

func TestServiceTypeCodes(t *testing.T) {
	env := newTestEnv(t)
	st := env.serviceType(t, "Printing", nil)
	assert.Equal(t, "ST-001", st.Code)
	assert.True(t, st.UsesPages)

	other := env.serviceType(t, "Lamination", nil)
	assert.Equal(t, "ST-002", other.Code)
	assert.False(t, other.UsesPages)
}
