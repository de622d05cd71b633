package gateway

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/profile"
	"github.com/creativeprojects/webmail/remote"
	"github.com/emersion/go-imap/backend"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

var credentials = mailbox.Credentials{Address: "username", Secret: "password"}

type fakeTransport struct {
	mu        sync.Mutex
	envelopes []*dispatch.Envelope
}

func (f *fakeTransport) Deliver(ctx context.Context, credentials mailbox.Credentials, envelope *dispatch.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes = append(f.envelopes, envelope)
	return nil
}

type fixture struct {
	gateway   *Gateway
	user      backend.User
	transport *fakeTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := memory.New()
	imapServer := server.New(be)
	imapServer.AllowInsecureAuth = true

	listener, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = imapServer.Serve(listener)
	}()
	t.Cleanup(func() {
		_ = imapServer.Close()
		// Serve may not have registered the listener yet
		_ = listener.Close()
		wg.Wait()
	})

	time.Sleep(100 * time.Millisecond)

	user, err := be.Login(nil, "username", "password")
	require.NoError(t, err)

	store, err := profile.NewBoltStore(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	log := lib.NewTestLogger(t, "gateway")
	sessions := remote.NewManager(remote.Config{
		ServerURL:      listener.Addr().String(),
		NoTLS:          true,
		ConnectTimeout: 5 * time.Second,
		CommandTimeout: 5 * time.Second,
		DebugLogger:    log,
	})
	transport := &fakeTransport{}
	return &fixture{
		gateway:   New(sessions, dispatch.NewSender(transport, log), store, Config{DebugLogger: log}),
		user:      user,
		transport: transport,
	}
}

func (f *fixture) append(t *testing.T, folder string, sample lib.SampleEmail) {
	t.Helper()
	mbox, err := f.user.GetMailbox(folder)
	if err != nil {
		require.NoError(t, f.user.CreateMailbox(folder))
		mbox, err = f.user.GetMailbox(folder)
	}
	require.NoError(t, err)
	require.NoError(t, mbox.CreateMessage(nil, sample.Date, bytes.NewBuffer(lib.GenerateEmail(sample))))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	account, err := f.gateway.Login(context.Background(), credentials)
	require.NoError(t, err)
	assert.Equal(t, "username", account.Address)
	assert.Equal(t, "Username", account.DisplayName)

	_, err = f.gateway.Login(context.Background(), mailbox.Credentials{Address: "username", Secret: "nope"})
	assert.ErrorIs(t, err, lib.ErrAuthentication)
}

func TestListMessagesDefaultFolder(t *testing.T) {
	f := newFixture(t)
	page, err := f.gateway.ListMessages(context.Background(), credentials, "", 1, 20)
	require.NoError(t, err)
	// the memory backend starts with one message in INBOX
	assert.Equal(t, uint32(1), page.Total)
	assert.Len(t, page.Messages, 1)

	_, err = f.gateway.ListMessages(context.Background(), credentials, "", 0, 20)
	assert.ErrorIs(t, err, lib.ErrValidation)
}

func TestReadAndFlagRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.append(t, "Work", lib.SampleEmail{From: "Bob <bob@example.com>", Subject: "status", Body: "all good"})

	isSeen := func() bool {
		page, err := f.gateway.ListMessages(ctx, credentials, "Work", 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		return page.Messages[0].Seen
	}
	assert.False(t, isSeen())

	body, err := f.gateway.GetMessageBody(ctx, credentials, "Work", 1)
	require.NoError(t, err)
	assert.Equal(t, "all good", body.Text)
	assert.True(t, isSeen())

	require.NoError(t, f.gateway.MarkRead(ctx, credentials, "Work", 1))
	assert.True(t, isSeen())
	require.NoError(t, f.gateway.MarkUnread(ctx, credentials, "Work", 1))
	assert.False(t, isSeen())
	require.NoError(t, f.gateway.MarkRead(ctx, credentials, "Work", 1))
	assert.True(t, isSeen())

	assert.ErrorIs(t, f.gateway.MarkRead(ctx, credentials, "Work", 0), lib.ErrValidation)
	assert.ErrorIs(t, f.gateway.MarkRead(ctx, credentials, "Work", 42), lib.ErrMessageNotFound)
}

func TestArchiveRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.append(t, "Work", lib.SampleEmail{From: "bob@example.com", Subject: "old news", Body: "x"})

	require.NoError(t, f.gateway.ArchiveMessage(ctx, credentials, "Work", 1))

	_, err := f.gateway.GetMessageBody(ctx, credentials, "Work", 1)
	assert.ErrorIs(t, err, lib.ErrMessageNotFound)

	page, err := f.gateway.ListMessages(ctx, credentials, DefaultArchiveFolder, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "old news", page.Messages[0].Subject)

	folders, err := f.gateway.ListFolders(ctx, credentials)
	require.NoError(t, err)
	assert.Contains(t, folders, DefaultArchiveFolder)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.append(t, "Work", lib.SampleEmail{From: "bob@example.com", Subject: "spam", Body: "x"})

	require.NoError(t, f.gateway.DeleteMessage(ctx, credentials, "Work", 1))
	page, err := f.gateway.ListMessages(ctx, credentials, "Work", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), page.Total)
	assert.Empty(t, page.Messages)
}

func TestSearchMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2023, 3, d, 12, 0, 0, 0, time.UTC) }
	f.append(t, "Work", lib.SampleEmail{From: "a@example.com", Subject: "budget", Date: day(3), Body: "x"})
	f.append(t, "Work", lib.SampleEmail{From: "b@example.com", Subject: "budget review", Date: day(5), Body: "x"})
	f.append(t, "Work", lib.SampleEmail{From: "c@example.com", Subject: "lunch", Date: day(4), Body: "x"})

	page, err := f.gateway.SearchMessages(ctx, credentials, "Work", "budget")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), page.Total)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "budget review", page.Messages[0].Subject)
	assert.Equal(t, "budget", page.Messages[1].Subject)

	// an empty query does not need valid credentials
	page, err = f.gateway.SearchMessages(ctx, mailbox.Credentials{}, "Work", "")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), page.Total)
	assert.Empty(t, page.Messages)
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	receipt, err := f.gateway.SendMessage(context.Background(), mailbox.Credentials{Address: "jane@example.com", Secret: "x"}, dispatch.Request{
		Recipients: []string{"bob@example.com"},
		Subject:    "hi",
		Text:       "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.MessageID)
	assert.Len(t, f.transport.envelopes, 1)

	_, err = f.gateway.SendMessage(context.Background(), credentials, dispatch.Request{
		Recipients: []string{"bad-address", "ok@x.com"},
		Subject:    "hi",
		Text:       "hello",
	})
	require.ErrorIs(t, err, lib.ErrValidation)
	assert.Contains(t, lib.UserMessage(err), "bad-address")
}
