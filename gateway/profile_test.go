package gateway

import (
	"testing"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDisplayName(t *testing.T) {
	fixtures := []struct {
		address string
		name    string
	}{
		{"jane.doe_x@host", "Jane Doe X"},
		{"bob@example.com", "Bob"},
		{"jean-luc.picard@enterprise.org", "Jean-Luc Picard"},
		{"r2d2@example.com", "R2d2"},
		{"", ""},
	}
	for _, fixture := range fixtures {
		assert.Equal(t, fixture.name, DefaultDisplayName(fixture.address))
	}
}

func TestProfileView(t *testing.T) {
	f := newFixture(t)
	view, err := f.gateway.Profile("jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", view.DisplayName)
	assert.Empty(t, view.Signature)

	require.NoError(t, f.gateway.UpdateProfile("jane.doe@example.com", profile.Profile{
		DisplayName:     "JD",
		Signature:       "-- JD",
		RecoveryAddress: "jd@backup.org",
	}))
	view, err = f.gateway.Profile("jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "JD", view.DisplayName)
	assert.Equal(t, "-- JD", view.Signature)
	assert.Equal(t, "jd@backup.org", view.RecoveryAddress)

	err = f.gateway.UpdateProfile("jane.doe@example.com", profile.Profile{RecoveryAddress: "nowhere"})
	assert.ErrorIs(t, err, lib.ErrValidation)

	_, err = f.gateway.Profile("")
	assert.ErrorIs(t, err, lib.ErrValidation)
}

func TestAvatar(t *testing.T) {
	f := newFixture(t)
	avatar, err := f.gateway.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, avatar)

	require.NoError(t, f.gateway.UpdateAvatar("jane@example.com", "data:image/png;base64,AAAA", "Jane"))
	avatar, err = f.gateway.Avatar("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", avatar)

	view, err := f.gateway.Profile("jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane", view.DisplayName)
}

func TestProfileWithoutStore(t *testing.T) {
	g := New(nil, nil, nil, Config{})
	view, err := g.Profile("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", view.DisplayName)

	assert.ErrorIs(t, g.UpdateAvatar("bob@example.com", "x", ""), lib.ErrValidation)
}
