package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/limitio"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport delivers a composed message on behalf of the user
type Transport interface {
	Deliver(ctx context.Context, credentials mailbox.Credentials, envelope *Envelope) error
}

type SMTPConfig struct {
	ServerURL string
	// TLS from the start of the connection (usually port 465)
	TLS bool
	// StartTLS upgrades the plain connection, the server must offer it
	StartTLS            bool
	SkipTLSVerification bool
	ConnectTimeout      time.Duration
	// RateLimit of the DATA command in bytes/sec, zero for no limit
	RateLimit   float64
	Burst       int
	DebugLogger lib.Logger
}

// SMTPTransport opens one connection per message
type SMTPTransport struct {
	cfg SMTPConfig
	log lib.Logger
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	log := cfg.DebugLogger
	if log == nil {
		log = &lib.NoLog{}
	}
	return &SMTPTransport{
		cfg: cfg,
		log: log,
	}
}

// verify interface
var _ Transport = &SMTPTransport{}

func (t *SMTPTransport) Deliver(ctx context.Context, credentials mailbox.Credentials, envelope *Envelope) error {
	if t.cfg.ServerURL == "" {
		return errors.New("missing SMTP server address")
	}

	t.log.Printf("Connecting to SMTP server %s...", t.cfg.ServerURL)
	client, err := t.connect(ctx)
	if err != nil {
		return classifyConnect(err, t.cfg.ServerURL)
	}
	defer client.Close()

	if ok, _ := client.Extension("AUTH"); !ok {
		return lib.NewError(lib.ErrAuthentication, "the outgoing mail server does not offer authentication", nil)
	}
	err = client.Auth(sasl.NewPlainClient("", credentials.Address, credentials.Secret))
	if err != nil {
		return classifyDelivery(err, "SMTP authentication failed")
	}
	t.log.Printf("Authenticated as %s", credentials.Address)

	if err := client.Mail(envelope.From, nil); err != nil {
		return classifyDelivery(err, "sender refused")
	}
	for _, recipient := range envelope.To {
		if err := client.Rcpt(recipient, nil); err != nil {
			return classifyDelivery(err, fmt.Sprintf("recipient %s refused", recipient))
		}
	}

	data, err := client.Data()
	if err != nil {
		return classifyDelivery(err, "message refused")
	}
	// the connect timeout does not apply to the upload
	writer := limitio.NewWriter(ctx, data)
	writer.SetRateLimit(t.cfg.RateLimit, t.cfg.Burst)
	if _, err := io.Copy(writer, bytes.NewReader(envelope.Data)); err != nil {
		_ = data.Close()
		return classifyDelivery(err, "cannot send message content")
	}
	if err := data.Close(); err != nil {
		return classifyDelivery(err, "message refused")
	}
	t.log.Printf("Message %s accepted for %d recipient(s)", envelope.MessageID, len(envelope.To))

	if err := client.Quit(); err != nil {
		// the message is already accepted
		lib.Warnf(t.log, "error closing SMTP session: %s", err)
	}
	return nil
}

// connect opens the connection up to the EHLO answer, upgraded with STARTTLS when configured.
// The connect timeout bounds these steps only.
func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	if t.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.ConnectTimeout)
		defer cancel()
	}
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", t.cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	stop := closeOnDone(ctx, conn)
	defer stop()

	if t.cfg.TLS {
		tlsConn := tls.Client(conn, t.tlsConfig())
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("TLS handshake with %s: %w", t.cfg.ServerURL, err)
		}
		conn = tlsConn
	}

	var client *smtp.Client
	if t.cfg.StartTLS && !t.cfg.TLS {
		client, err = smtp.NewClientStartTLS(conn, t.tlsConfig())
		if err != nil {
			// the client already closed the connection
			return nil, connectError(ctx, err)
		}
		t.log.Print("Connection upgraded with STARTTLS")
	} else {
		client = smtp.NewClient(conn)
	}
	// reads the greeting and the EHLO answer
	if err := client.Noop(); err != nil {
		client.Close()
		return nil, connectError(ctx, err)
	}
	return client, nil
}

// closeOnDone closes the connection when the context ends before stop is called
func closeOnDone(ctx context.Context, conn net.Conn) (stop func()) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

// connectError reports a connection closed by the connect timeout as the timeout itself
func connectError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s", ctxErr, err)
	}
	return err
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	host, _, _ := net.SplitHostPort(t.cfg.ServerURL)
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: t.cfg.SkipTLSVerification,
	}
}

func networkKind(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return lib.ErrConnectionTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return lib.ErrConnectionRefused
	default:
		return lib.ErrConnection
	}
}

func classifyConnect(err error, serverURL string) error {
	switch kind := networkKind(err); kind {
	case lib.ErrConnectionTimeout:
		return lib.NewError(kind, "timed out connecting to the outgoing mail server", err)
	case lib.ErrConnectionRefused:
		return lib.NewError(kind, "the outgoing mail server refused the connection, check its address and port", err)
	default:
		return lib.NewError(kind, fmt.Sprintf("cannot connect to SMTP server %s", serverURL), err)
	}
}

// classifyDelivery turns the SMTP replies into error kinds: 530/534/535 are authentication
// failures, other replies are a refused delivery.
func classifyDelivery(err error, message string) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		switch smtpErr.Code {
		case 530, 534, 535:
			return lib.NewError(lib.ErrAuthentication, "SMTP authentication failure, check the address and password", err)
		default:
			return lib.NewError(lib.ErrTransportRefused, fmt.Sprintf("%s: %s", message, smtpErr.Message), err)
		}
	}
	var classified *lib.Error
	if errors.As(err, &classified) {
		return err
	}
	return lib.NewError(networkKind(err), message, err)
}
