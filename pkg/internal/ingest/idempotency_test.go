package ingest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

func TestGuardRoundTrip(t *testing.T) {
	store := newStore(t)
	guard := ingest.NewGuard(store)
	ctx := context.Background()

	miss, err := guard.Lookup(ctx, "req-1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	res := &ingest.Result{
		Success:     true,
		RequestID:   "req-1",
		ChannelName: "primary",
		Files:       []ingest.ResultFile{{Name: "a.jpg", StorageID: "id_a.jpg", StoragePath: "/file/id_a.jpg", MessageID: 3}},
	}
	require.NoError(t, guard.Commit(ctx, "req-1", res))

	hit, err := guard.Lookup(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.True(t, hit.Idempotent)

	hit.Idempotent = false
	assert.Equal(t, res, hit)

	exists, err := store.Exists(ctx, "manage@tg_media_group_request@req-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGuardNoRequestID(t *testing.T) {
	store := newStore(t)
	guard := ingest.NewGuard(store)

	require.NoError(t, guard.Commit(context.Background(), "", &ingest.Result{Success: true}))
	assert.Zero(t, store.sets.Load())

	hit, err := guard.Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestGuardSelfHealsCorruptRecord(t *testing.T) {
	for name, value := range map[string]string{
		"not json":    "{not json",
		"not success": `{"success":false,"files":[]}`,
		"wrong shape": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			key := ingest.IdempotencyKey("req-x")

			require.NoError(t, store.KVStore.Set(ctx, key, []byte(value), 0))

			hit, err := ingest.NewGuard(store).Lookup(ctx, "req-x")
			require.NoError(t, err)
			assert.Nil(t, hit)

			exists, err := store.Exists(ctx, key)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestGuardStoreFailure(t *testing.T) {
	store := newStore(t)
	store.getErr = errStoreDown

	_, err := ingest.NewGuard(store).Lookup(context.Background(), "req-1")
	require.Error(t, err)
	assert.Equal(t, ingest.CodeInternal, codeOf(err))
	assert.ErrorIs(t, err, errStoreDown)
}
