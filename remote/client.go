package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Client is the part of the IMAP client used by a Session. *client.Client implements it.
type Client interface {
	Login(username, password string) error
	Logout() error
	Noop() error
	Support(capability string) (bool, error)
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Create(name string) error
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	UidCopy(seqset *imap.SeqSet, dest string) error
	UidMove(seqset *imap.SeqSet, dest string) error
	Expunge(ch chan uint32) error
}

// uidExpunger is implemented by clients supporting the UIDPLUS extension
type uidExpunger interface {
	UidExpunge(seqset *imap.SeqSet, ch chan uint32) error
}

// DialFunc opens a connection to the server, up to the greeting. Login is done by the Manager.
type DialFunc func(ctx context.Context, cfg Config) (Client, error)

// verify interface
var _ Client = &client.Client{}

// Dial connects to the IMAP server of the configuration. The context deadline bounds
// the TCP connection, the TLS handshake and the server greeting.
func Dial(ctx context.Context, cfg Config) (Client, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if !cfg.NoTLS {
		host, _, _ := net.SplitHostPort(cfg.ServerURL)
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: cfg.SkipTLSVerification,
		})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("TLS handshake with %s: %w", cfg.ServerURL, err)
		}
		conn = tlsConn
	}
	imapClient, err := client.New(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// the login is still bounded by the connect timeout
	_ = conn.SetDeadline(time.Time{})
	imapClient.Timeout = cfg.ConnectTimeout
	return imapClient, nil
}
