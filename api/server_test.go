package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/profile"
	"github.com/creativeprojects/webmail/remote"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

type nullTransport struct{}

func (t nullTransport) Deliver(ctx context.Context, credentials mailbox.Credentials, envelope *dispatch.Envelope) error {
	return nil
}

type testClient struct {
	t      *testing.T
	url    string
	client *http.Client
}

// newTestClient starts the HTTP adapter in front of an in-memory IMAP server
func newTestClient(t *testing.T) *testClient {
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

	store, err := profile.NewBoltStore(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	log := lib.NewTestLogger(t, "api")
	sessions := remote.NewManager(remote.Config{
		ServerURL:      listener.Addr().String(),
		NoTLS:          true,
		ConnectTimeout: 5 * time.Second,
		CommandTimeout: 5 * time.Second,
	})
	gw := gateway.New(sessions, dispatch.NewSender(nullTransport{}, log), store, gateway.Config{})
	httpServer := httptest.NewServer(New(Config{DebugLogger: log}, gw).Handler())
	t.Cleanup(httpServer.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:      t,
		url:    httpServer.URL,
		client: &http.Client{Jar: jar},
	}
}

func (c *testClient) post(path string, body any) (int, map[string]any) {
	c.t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(c.t, err)
	resp, err := c.client.Post(c.url+path, "application/json", bytes.NewReader(payload))
	require.NoError(c.t, err)
	return decodeResponse(c.t, resp)
}

func (c *testClient) get(path string) (int, map[string]any) {
	c.t.Helper()
	resp, err := c.client.Get(c.url + path)
	require.NoError(c.t, err)
	return decodeResponse(c.t, resp)
}

func decodeResponse(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	content := make(map[string]any)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&content))
	return resp.StatusCode, content
}

func (c *testClient) login() {
	c.t.Helper()
	status, body := c.post("/login", map[string]any{"email": "username", "password": "password"})
	require.Equal(c.t, http.StatusOK, status, body)
}

func TestRequiresSession(t *testing.T) {
	c := newTestClient(t)
	status, body := c.post("/emails", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

func TestLoginFailure(t *testing.T) {
	c := newTestClient(t)
	status, body := c.post("/login", map[string]any{"email": "username", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTHENTICATION", body["kind"])

	status, body = c.post("/login", map[string]any{"email": "username"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "password")
}

func TestLoginListLogout(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.post("/emails", map[string]any{})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["total"])
	assert.Len(t, body["emails"], 1)

	status, body = c.post("/emails", map[string]any{"page": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["kind"])

	status, body = c.post("/emails", map[string]any{"box": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "MAILBOX_NOT_FOUND", body["kind"])

	status, _ = c.post("/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.post("/emails", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMessageOperations(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.post("/emails", map[string]any{"box": "INBOX"})
	require.Equal(t, http.StatusOK, status, body)
	emails := body["emails"].([]any)
	require.Len(t, emails, 1)
	uid := emails[0].(map[string]any)["uid"]

	status, body = c.post("/email-body", map[string]any{"uid": uid})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["text"])

	status, _ = c.post("/mark-unread", map[string]any{"uid": uid})
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.post("/mark-read", map[string]any{"uid": uid})
	assert.Equal(t, http.StatusOK, status)

	status, body = c.post("/mark-read", map[string]any{"uid": 999})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "MESSAGE_NOT_FOUND", body["kind"])

	status, body = c.post("/email-body", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.post("/archive-email", map[string]any{"uid": uid})
	assert.Equal(t, http.StatusOK, status)

	status, body = c.post("/emails", map[string]any{"box": "Archive"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["total"])

	status, body = c.get("/folders")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["folders"], "Archive")
}

func TestSearch(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.post("/search-emails", map[string]any{"query": ""})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(0), body["total"])
	assert.Empty(t, body["emails"])
}

func TestSendValidation(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.post("/send-email", map[string]any{
		"to":      "bad-address, ok@x.com",
		"subject": "hi",
		"text":    "hello",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "bad-address")

	status, body = c.post("/send-email", map[string]any{
		"to":      []string{"ok@x.com"},
		"subject": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = c.post("/send-email", map[string]any{
		"to":      []string{"ok@x.com"},
		"subject": "hi",
		"html":    "<p>hello</p>",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["messageId"])
}

func TestProfileAndAvatar(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.get("/profile")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Username", body["name"])

	status, body = c.post("/profile", map[string]any{"name": "User Name", "signature": "--", "recoveryAddress": "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, _ = c.post("/profile", map[string]any{"name": "User Name", "signature": "--"})
	require.Equal(t, http.StatusOK, status)
	_, body = c.get("/profile")
	assert.Equal(t, "User Name", body["name"])
	assert.Equal(t, "--", body["signature"])

	_, body = c.get("/avatar/username")
	assert.Nil(t, body["avatar"])
	status, _ = c.post("/avatar", map[string]any{"avatar": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusOK, status)
	_, body = c.get("/avatar/username")
	assert.Equal(t, "data:image/png;base64,AAAA", body["avatar"])
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf("VALIDATION"))
	assert.Equal(t, http.StatusUnauthorized, statusOf("AUTHENTICATION"))
	assert.Equal(t, http.StatusNotFound, statusOf("MESSAGE_NOT_FOUND"))
	assert.Equal(t, http.StatusGatewayTimeout, statusOf("TIMEOUT"))
	assert.Equal(t, http.StatusBadGateway, statusOf("TRANSPORT_REFUSED"))
	assert.Equal(t, http.StatusInternalServerError, statusOf("INTERNAL"))
}
