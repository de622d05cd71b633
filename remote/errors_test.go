package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/creativeprojects/webmail/lib"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	fixtures := []struct {
		err  error
		kind error
	}{
		{context.DeadlineExceeded, lib.ErrConnectionTimeout},
		{errors.New("read tcp: i/o timeout"), lib.ErrConnectionTimeout},
		{fmt.Errorf("dial: %w", syscall.ECONNREFUSED), lib.ErrConnectionRefused},
		{errors.New("Authentication failed"), lib.ErrAuthentication},
		{errors.New("No such mailbox"), lib.ErrMailboxNotFound},
		{errors.New("NO [TRYCREATE] Mailbox doesn't exist"), lib.ErrMailboxNotFound},
		{io.EOF, lib.ErrConnection},
		{errors.New("use of closed network connection"), lib.ErrConnection},
		{errors.New("BAD command unknown"), nil},
	}
	for _, fixture := range fixtures {
		t.Run(fixture.err.Error(), func(t *testing.T) {
			assert.Equal(t, fixture.kind, kindOf(fixture.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "nothing"))

	err := classify(errors.New("i/o timeout"), "cannot fetch messages")
	assert.ErrorIs(t, err, lib.ErrConnectionTimeout)
	assert.Equal(t, "cannot fetch messages: timed out", lib.UserMessage(err))

	unknown := classify(errors.New("BAD syntax"), "cannot fetch messages")
	assert.Equal(t, "INTERNAL", lib.KindOf(unknown))
	assert.Contains(t, unknown.Error(), "BAD syntax")

	already := lib.NewError(lib.ErrMessageNotFound, "gone", nil)
	assert.Same(t, already, classify(already, "other"))
}

func TestClassifyLogin(t *testing.T) {
	assert.ErrorIs(t, classifyLogin(errors.New("NO Invalid credentials")), lib.ErrAuthentication)
	assert.ErrorIs(t, classifyLogin(errors.New("NO go away")), lib.ErrAuthentication)
	assert.ErrorIs(t, classifyLogin(io.EOF), lib.ErrConnection)
}

func TestClassifyConnect(t *testing.T) {
	assert.ErrorIs(t, classifyConnect(context.DeadlineExceeded, "host:993"), lib.ErrConnectionTimeout)
	assert.ErrorIs(t, classifyConnect(syscall.ECONNREFUSED, "host:993"), lib.ErrConnectionRefused)
	err := classifyConnect(errors.New("no such host"), "host:993")
	assert.ErrorIs(t, err, lib.ErrConnection)
	assert.Contains(t, lib.UserMessage(err), "host:993")
}
