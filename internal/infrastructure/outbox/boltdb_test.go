package outbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndGetBatch(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "a@example.com"}))
	require.NoError(t, store.Enqueue(Message{Kind: KindInvitation, To: "b@example.com"}))

	msgs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[0].ID)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestGetBatchOldestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Now()
	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "new@example.com", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "old@example.com", Timestamp: base.Add(-time.Minute)}))

	msgs, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "old@example.com", msgs[0].To)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "a@example.com"}))

	msgs, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, store.Remove(msgs[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeuePushesToBack(t *testing.T) {
	store := openTestStore(t)

	base := time.Now()
	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "first@example.com", Timestamp: base.Add(-time.Hour)}))
	require.NoError(t, store.Enqueue(Message{Kind: KindConfirmation, To: "second@example.com", Timestamp: base.Add(-time.Minute)}))

	msgs, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Equal(t, "first@example.com", msgs[0].To)

	failed := msgs[0]
	failed.Attempts++
	require.NoError(t, store.Remove(msgs[0]))
	require.NoError(t, store.Requeue(failed))

	msgs, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second@example.com", msgs[0].To)
	assert.Equal(t, "first@example.com", msgs[1].To)
	assert.Equal(t, 1, msgs[1].Attempts)
}
