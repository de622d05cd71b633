package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/creativeprojects/webmail/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	fixtures := []struct {
		values   []string
		expected []string
	}{
		{[]string{"ok@x.com"}, []string{"ok@x.com"}},
		{[]string{"a@x.com, b@y.org"}, []string{"a@x.com", "b@y.org"}},
		{[]string{"a@x.com", "b@y.org"}, []string{"a@x.com", "b@y.org"}},
		{[]string{" a@x.com ,, "}, []string{"a@x.com"}},
		{[]string{"a@x.com, b@x.com", "c@x.com"}, []string{"a@x.com", "b@x.com", "c@x.com"}},
	}
	for _, fixture := range fixtures {
		recipients, err := ParseRecipients(fixture.values...)
		require.NoError(t, err)
		assert.Equal(t, fixture.expected, recipients)
	}
}

func TestParseInvalidRecipients(t *testing.T) {
	_, err := ParseRecipients("bad-address", "ok@x.com")
	require.ErrorIs(t, err, lib.ErrValidation)
	assert.Contains(t, lib.UserMessage(err), "bad-address")
	assert.NotContains(t, lib.UserMessage(err), "ok@x.com")

	_, err = ParseRecipients("one@x.com,also bad@x.com,two@nodot")
	require.ErrorIs(t, err, lib.ErrValidation)
	assert.Contains(t, lib.UserMessage(err), "also bad@x.com")
	assert.Contains(t, lib.UserMessage(err), "two@nodot")

	_, err = ParseRecipients()
	assert.ErrorIs(t, err, lib.ErrValidation)

	_, err = ParseRecipients(" , ")
	assert.ErrorIs(t, err, lib.ErrValidation)
}

func TestDecodeRecipients(t *testing.T) {
	var fromString Recipients
	require.NoError(t, json.Unmarshal([]byte(`"a@x.com,b@x.com"`), &fromString))
	assert.Equal(t, Recipients{"a@x.com,b@x.com"}, fromString)

	var fromList Recipients
	require.NoError(t, json.Unmarshal([]byte(`["a@x.com","b@x.com"]`), &fromList))
	assert.Equal(t, Recipients{"a@x.com", "b@x.com"}, fromList)

	recipients, err := ParseRecipients(fromList...)
	require.NoError(t, err)
	assert.Len(t, recipients, 2)

	var mixed Recipients
	require.NoError(t, json.Unmarshal([]byte(`["a@x.com, b@x.com","c@x.com"]`), &mixed))
	recipients, err = ParseRecipients(mixed...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, recipients)

	var invalid Recipients
	assert.Error(t, json.Unmarshal([]byte(`42`), &invalid))
}
