package profile

import (
	"path/filepath"
	"testing"

	"github.com/creativeprojects/webmail/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStoreWithLogger(filepath.Join(t.TempDir(), "db", "profiles.db"), lib.NewTestLogger(t, "profile"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestGetMissingProfile(t *testing.T) {
	store := newTestStore(t)
	profile, err := store.Get("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, profile)

	avatar, err := store.Avatar("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, avatar)
}

func TestPutAndGetProfile(t *testing.T) {
	store := newTestStore(t)
	err := store.Put("Jane@Example.com", Profile{
		DisplayName:     "Jane",
		Avatar:          "data:image/png;base64,AAAA",
		Signature:       "-- Jane",
		RecoveryAddress: "jane@backup.org",
	})
	require.NoError(t, err)

	profile, err := store.Get("jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jane", profile.DisplayName)
	assert.Equal(t, "-- Jane", profile.Signature)
	assert.Equal(t, "jane@backup.org", profile.RecoveryAddress)
	assert.Empty(t, profile.Avatar)

	avatar, err := store.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", avatar)
}

func TestPutKeepsAvatar(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateAvatar("jane@example.com", "avatar-1", ""))
	require.NoError(t, store.Put("jane@example.com", Profile{DisplayName: "Jane"}))

	avatar, err := store.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "avatar-1", avatar)
}

func TestUpdateAvatar(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put("jane@example.com", Profile{DisplayName: "Jane", Signature: "sig"}))

	require.NoError(t, store.UpdateAvatar("jane@example.com", "avatar-2", "Jane Doe"))
	profile, err := store.Get("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.DisplayName)
	assert.Equal(t, "sig", profile.Signature)

	avatar, err := store.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "avatar-2", avatar)

	// empty values leave the store untouched
	require.NoError(t, store.UpdateAvatar("jane@example.com", "", ""))
	avatar, err = store.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "avatar-2", avatar)
}

func TestReopenStore(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "profiles.db")
	store, err := NewBoltStore(filename)
	require.NoError(t, err)
	require.NoError(t, store.Put("jane@example.com", Profile{DisplayName: "Jane"}))
	require.NoError(t, store.Close())

	store, err = NewBoltStore(filename)
	require.NoError(t, err)
	defer store.Close()
	profile, err := store.Get("jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jane", profile.DisplayName)
}
