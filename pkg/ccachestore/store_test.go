package ccachestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/messages"
)

func testPrincipal(t *testing.T) credential.Principal {
	t.Helper()
	realm, err := messages.NewRealm("KINGDOM.HEARTS")
	require.NoError(t, err)
	name, err := messages.NewPrincipalName(messages.NameTypePrincipal, "mickey")
	require.NoError(t, err)
	return credential.Principal{Realm: realm, Name: name}
}

func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	principal := testPrincipal(t)

	_, err := store.Load(ctx, principal)
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte("fake-ccache-bytes")
	require.NoError(t, store.Save(ctx, principal, payload))

	got, err := store.Load(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	overwrite := []byte("new-ccache-bytes")
	require.NoError(t, store.Save(ctx, principal, overwrite))
	got, err = store.Load(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, overwrite, got)

	require.NoError(t, store.Delete(ctx, principal))
	_, err = store.Load(ctx, principal)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent entry is not an error.
	assert.NoError(t, store.Delete(ctx, principal))
}

func TestFileStore_SaveLoadDeleteContract(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}

func TestFileStore_PathIsEscapedAndScoped(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	path := store.path(testPrincipal(t))

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Contains(t, path, "mickey")
	assert.Contains(t, path, "KINGDOM.HEARTS")
}

func TestFileStore_LoadMissingFileIsNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), testPrincipal(t))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBadgerStore_SaveLoadDeleteContract(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	runStoreContract(t, store)
}
