package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundtrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a.png", strings.NewReader("pixels")))

	reader, err := store.Open(ctx, "a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	require.Equal(t, "pixels", string(data))

	require.NoError(t, store.Delete(ctx, "a.png"))

	_, err = store.Open(ctx, "a.png")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "a.png"), ErrNotFound)
}

func TestLocalStoreStripsPathComponents(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "../../etc/passwd.png", strings.NewReader("x")))

	// The traversal prefix is dropped, so the blob lands under the store dir.
	reader, err := store.Open(ctx, "passwd.png")
	require.NoError(t, err)
	require.NoError(t, reader.Close())
}
