// internal/storage/badger_store_test.go
package storage

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e testEntity) GetID() string { return e.ID }

func newTestStore(t *testing.T) *Store[testEntity] {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore[testEntity](db, "test")
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(testEntity{ID: "1", Name: "one"}))

	got, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Name)
}

func TestCreateDuplicate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Create(testEntity{ID: "1", Name: "one"}))
	err := store.Create(testEntity{ID: "1", Name: "again"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Update(testEntity{ID: "1"}), ErrNotFound)

	require.NoError(t, store.Create(testEntity{ID: "1", Name: "one"}))
	require.NoError(t, store.Update(testEntity{ID: "1", Name: "uno"}))

	got, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Name)

	require.NoError(t, store.Delete("1"))
	assert.ErrorIs(t, store.Delete("1"), ErrNotFound)
}

func TestList(t *testing.T) {
	store := newTestStore(t)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Create(testEntity{ID: "a", Name: "first"}))
	require.NoError(t, store.Create(testEntity{ID: "b", Name: "second"}))

	list, err = store.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
