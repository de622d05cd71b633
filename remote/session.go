package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	compress "github.com/emersion/go-imap-compress"
	uidplus "github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
)

type Config struct {
	ServerURL           string
	NoTLS               bool
	SkipTLSVerification bool
	// ConnectTimeout bounds the connection, the greeting and the login
	ConnectTimeout time.Duration
	// CommandTimeout bounds each command once logged in
	CommandTimeout time.Duration
	// KeepAlive is the interval between two NOOP while a session is held, zero to disable
	KeepAlive   time.Duration
	Compress    bool
	DebugLogger lib.Logger
}

// Manager opens one Session per operation. It keeps no connection between two calls
// and can be used by many goroutines at the same time.
type Manager struct {
	cfg  Config
	dial DialFunc
	log  lib.Logger
}

func NewManager(cfg Config) *Manager {
	log := cfg.DebugLogger
	if log == nil {
		log = &lib.NoLog{}
	}
	return &Manager{
		cfg:  cfg,
		dial: Dial,
		log:  log,
	}
}

// WithDialer replaces the function opening the connections
func (m *Manager) WithDialer(dial DialFunc) *Manager {
	m.dial = dial
	return m
}

// Open connects and logs in to the server. The caller owns the session and must Close it.
func (m *Manager) Open(ctx context.Context, credentials mailbox.Credentials) (*Session, error) {
	if !credentials.Valid() {
		return nil, lib.Validationf("address and password are required")
	}
	if m.cfg.ServerURL == "" {
		return nil, errors.New("missing server address from Config object")
	}
	if m.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()
	}

	m.log.Printf("Connecting to server %s...", m.cfg.ServerURL)
	imapClient, err := m.dial(ctx, m.cfg)
	if err != nil {
		return nil, classifyConnect(err, m.cfg.ServerURL)
	}
	m.log.Print("Connected")

	if err := imapClient.Login(credentials.Address, credentials.Secret); err != nil {
		if logoutErr := imapClient.Logout(); logoutErr != nil {
			m.log.Printf("cannot close connection after failed login: %s", logoutErr)
		}
		return nil, classifyLogin(err)
	}
	m.log.Printf("Logged in as %s", credentials.Address)

	session := newSession(imapClient, m.log)
	session.enableExtensions(m.cfg)
	session.startKeepAlive(m.cfg.KeepAlive)
	return session, nil
}

// WithSession runs task inside a new session. The session is closed once, whatever the task returns,
// and a panic in the task is returned as an error.
func (m *Manager) WithSession(ctx context.Context, credentials mailbox.Credentials, task func(session *Session) error) (err error) {
	session, err := m.Open(ctx, credentials)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure during IMAP session: %v", r)
		}
		if closeErr := session.Close(); closeErr != nil {
			lib.Warnf(m.log, "error closing IMAP session of %s: %s", credentials, closeErr)
		}
	}()
	return task(session)
}

type SessionState int

const (
	StateReady SessionState = iota
	StateInUse
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInUse:
		return "in use"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one authenticated connection. Commands are serialized, including the keep-alive ones.
type Session struct {
	client    Client
	expunger  uidExpunger
	log       lib.Logger
	now       func() time.Time
	mu        sync.Mutex
	state     SessionState
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newSession(imapClient Client, log lib.Logger) *Session {
	session := &Session{
		client: imapClient,
		log:    log,
		now:    time.Now,
		state:  StateReady,
	}
	if expunger, ok := imapClient.(uidExpunger); ok {
		session.expunger = expunger
	}
	return session
}

func (s *Session) enableExtensions(cfg Config) {
	imapClient, ok := s.client.(*client.Client)
	if !ok {
		return
	}
	imapClient.Timeout = cfg.CommandTimeout

	if cfg.Compress {
		compressClient := compress.NewClient(imapClient)
		if supported, err := compressClient.SupportCompress(compress.Deflate); err == nil && supported {
			if err := compressClient.Compress(compress.Deflate); err != nil {
				lib.Warnf(s.log, "cannot enable compression: %s", err)
			} else {
				s.log.Print("Compression enabled")
			}
		}
	}

	uidExt := uidplus.NewClient(imapClient)
	if supported, err := uidExt.SupportUidPlus(); err == nil && supported {
		s.expunger = uidExt
	} else {
		s.log.Print("IMAP server does NOT support UIDPLUS extension")
	}
}

func (s *Session) startKeepAlive(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				err := s.do(func(c Client) error {
					return c.Noop()
				})
				if err != nil && !errors.Is(err, lib.ErrSessionClosed) {
					lib.Warnf(s.log, "keep-alive failed: %s", err)
				}
			}
		}
	}()
}

// State of the session
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// do runs one exchange with the server, holding the session
func (s *Session) do(exchange func(c Client) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return lib.ErrSessionClosed
	}
	s.state = StateInUse
	defer func() {
		if s.state == StateInUse {
			s.state = StateReady
		}
	}()
	return exchange(s.client)
}

// Close stops the keep-alive and logs out. It can be called more than once,
// the connection is only released the first time.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.stopped
		}
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()

		s.log.Print("Closing connection")
		err := s.client.Logout()
		if err != nil && !errors.Is(err, client.ErrAlreadyLoggedOut) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
