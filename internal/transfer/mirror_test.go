package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureFolderReusesExisting(t *testing.T) {
	fr := newFakeRemote(t)
	existing := fr.addEntry(0, "docs", true, 0, "")

	m := NewMirror(fr.client.Files, 0)
	id, err := m.EnsureFolder(context.Background(), 0, "docs")
	require.NoError(t, err)

	assert.Equal(t, existing.id, id)
	assert.Equal(t, 0, fr.adds(), "existing folder must not be re-created")
}

func TestEnsureFolderCreatesMissing(t *testing.T) {
	fr := newFakeRemote(t)

	m := NewMirror(fr.client.Files, 0)
	id, err := m.EnsureFolder(context.Background(), 0, "docs")
	require.NoError(t, err)

	assert.Equal(t, 1, fr.adds())
	assert.Greater(t, id, int64(0))
}

func TestEnsurePathCachesResolution(t *testing.T) {
	fr := newFakeRemote(t)
	ctx := context.Background()

	m := NewMirror(fr.client.Files, 0)

	aID, err := m.EnsurePath(ctx, "a")
	require.NoError(t, err)
	bID, err := m.EnsurePath(ctx, "a/b")
	require.NoError(t, err)
	assert.NotEqual(t, aID, bID)

	// repeat resolution comes from the cache, not the network
	again, err := m.EnsurePath(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, aID, again)

	assert.Equal(t, 2, fr.adds())
	assert.Equal(t, 1, fr.lists(0), "parent listed at most once per folder")
	assert.Equal(t, 1, fr.lists(aID))
}

func TestResolveFallsBackToAncestor(t *testing.T) {
	fr := newFakeRemote(t)

	m := NewMirror(fr.client.Files, 42)
	assert.Equal(t, int64(42), m.Resolve(""))
	assert.Equal(t, int64(42), m.Resolve("never/created"))

	id, err := m.EnsurePath(context.Background(), "known")
	require.NoError(t, err)

	// an unmapped child resolves to its nearest cached ancestor
	assert.Equal(t, id, m.Resolve("known/unmapped"))
}
