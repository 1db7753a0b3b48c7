package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CreativeUnicorns/addonprefs"
)

// exerciseStorage runs the behaviour every backend must share.
func exerciseStorage(t *testing.T, s addonprefs.Storage) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.Get(ctx, addonprefs.LayerUser, "ext.missing")
	assert.ErrorIs(t, err, addonprefs.ErrNotFound)

	def := &addonprefs.StoredPref{Layer: addonprefs.LayerDefault, Key: "ext.debug", Kind: addonprefs.KindBool, Value: "false", UpdatedAt: now}
	user := &addonprefs.StoredPref{Layer: addonprefs.LayerUser, Key: "ext.debug", Kind: addonprefs.KindBool, Value: "true", UpdatedAt: now}
	require.NoError(t, s.Set(ctx, def))
	require.NoError(t, s.Set(ctx, user))

	got, err := s.Get(ctx, addonprefs.LayerDefault, "ext.debug")
	require.NoError(t, err)
	assert.Equal(t, "false", got.Value)
	assert.Equal(t, addonprefs.KindBool, got.Kind)
	assert.Equal(t, addonprefs.LayerDefault, got.Layer)

	got, err = s.Get(ctx, addonprefs.LayerUser, "ext.debug")
	require.NoError(t, err)
	assert.Equal(t, "true", got.Value)
	assert.Equal(t, now.Unix(), got.UpdatedAt.Unix())

	// overwrite replaces kind and value
	require.NoError(t, s.Set(ctx, &addonprefs.StoredPref{Layer: addonprefs.LayerUser, Key: "ext.debug", Kind: addonprefs.KindString, Value: "sealed", Encrypted: true, UpdatedAt: now}))
	got, err = s.Get(ctx, addonprefs.LayerUser, "ext.debug")
	require.NoError(t, err)
	assert.Equal(t, addonprefs.KindString, got.Kind)
	assert.Equal(t, "sealed", got.Value)
	assert.True(t, got.Encrypted)

	require.NoError(t, s.Set(ctx, &addonprefs.StoredPref{Layer: addonprefs.LayerDefault, Key: "ext.level", Kind: addonprefs.KindInt, Value: "3", UpdatedAt: now}))
	require.NoError(t, s.Set(ctx, &addonprefs.StoredPref{Layer: addonprefs.LayerDefault, Key: "other.level", Kind: addonprefs.KindInt, Value: "4", UpdatedAt: now}))

	listed, err := s.List(ctx, addonprefs.LayerDefault, "ext.")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Contains(t, listed, "ext.debug")
	assert.Contains(t, listed, "ext.level")

	listed, err = s.List(ctx, addonprefs.LayerUser, "nothing.")
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, s.Delete(ctx, addonprefs.LayerUser, "ext.debug"))
	_, err = s.Get(ctx, addonprefs.LayerUser, "ext.debug")
	assert.ErrorIs(t, err, addonprefs.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, addonprefs.LayerUser, "ext.debug"), addonprefs.ErrNotFound)

	// the default layer is untouched
	_, err = s.Get(ctx, addonprefs.LayerDefault, "ext.debug")
	assert.NoError(t, err)
}
