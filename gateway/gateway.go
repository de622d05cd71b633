package gateway

import (
	"context"
	"strings"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/profile"
	"github.com/creativeprojects/webmail/remote"
	"github.com/emersion/go-imap"
)

const DefaultArchiveFolder = "Archive"

// ProfileStore is implemented by *profile.BoltStore
type ProfileStore interface {
	Get(address string) (*profile.Profile, error)
	Put(address string, stored profile.Profile) error
	UpdateAvatar(address, avatar, displayName string) error
	Avatar(address string) (string, error)
}

type Config struct {
	ArchiveFolder string
	DebugLogger   lib.Logger
}

// Gateway is the operation set offered to the callers. Every mailbox operation
// runs in its own session, nothing is kept between two calls.
type Gateway struct {
	sessions *remote.Manager
	sender   *dispatch.Sender
	profiles ProfileStore
	archive  string
	log      lib.Logger
}

func New(sessions *remote.Manager, sender *dispatch.Sender, profiles ProfileStore, cfg Config) *Gateway {
	log := cfg.DebugLogger
	if log == nil {
		log = &lib.NoLog{}
	}
	archive := cfg.ArchiveFolder
	if archive == "" {
		archive = DefaultArchiveFolder
	}
	return &Gateway{
		sessions: sessions,
		sender:   sender,
		profiles: profiles,
		archive:  archive,
		log:      log,
	}
}

// Account is returned by a successful login
type Account struct {
	Address     string `json:"email"`
	DisplayName string `json:"name"`
}

// Login checks the credentials against the mail store
func (g *Gateway) Login(ctx context.Context, credentials mailbox.Credentials) (*Account, error) {
	err := g.sessions.WithSession(ctx, credentials, func(session *remote.Session) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.Printf("User %s authenticated", credentials)
	return &Account{
		Address:     credentials.Address,
		DisplayName: DefaultDisplayName(credentials.Address),
	}, nil
}

func (g *Gateway) ListMessages(ctx context.Context, credentials mailbox.Credentials, folder string, page, limit int) (*remote.Page, error) {
	// invalid parameters never open a session
	if err := mailbox.ValidatePage(page, limit); err != nil {
		return nil, err
	}
	var result *remote.Page
	err := g.sessions.WithSession(ctx, credentials, func(session *remote.Session) error {
		var err error
		result, err = session.ListMessages(folderOrDefault(folder), page, limit)
		return err
	})
	return result, err
}

func (g *Gateway) GetMessageBody(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) (*mailbox.MessageBody, error) {
	if err := validateUid(uid); err != nil {
		return nil, err
	}
	var body *mailbox.MessageBody
	err := g.sessions.WithSession(ctx, credentials, func(session *remote.Session) error {
		var err error
		body, err = session.FetchBody(folderOrDefault(folder), uid)
		return err
	})
	return body, err
}

func (g *Gateway) DeleteMessage(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error {
	return g.mutate(ctx, credentials, uid, func(session *remote.Session) error {
		return session.DeletePermanently(folderOrDefault(folder), uid)
	})
}

func (g *Gateway) ArchiveMessage(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error {
	return g.mutate(ctx, credentials, uid, func(session *remote.Session) error {
		return session.MoveToArchive(folderOrDefault(folder), uid, g.archive)
	})
}

func (g *Gateway) MarkRead(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error {
	return g.mutate(ctx, credentials, uid, func(session *remote.Session) error {
		return session.SetFlag(folderOrDefault(folder), uid, imap.SeenFlag, true)
	})
}

func (g *Gateway) MarkUnread(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error {
	return g.mutate(ctx, credentials, uid, func(session *remote.Session) error {
		return session.SetFlag(folderOrDefault(folder), uid, imap.SeenFlag, false)
	})
}

// SearchMessages returns the matching messages, newest first. The total is the number of matches.
func (g *Gateway) SearchMessages(ctx context.Context, credentials mailbox.Credentials, folder, query string) (*remote.Page, error) {
	if strings.TrimSpace(query) == "" {
		return &remote.Page{Messages: []mailbox.MessageSummary{}}, nil
	}
	var result *remote.Page
	err := g.sessions.WithSession(ctx, credentials, func(session *remote.Session) error {
		summaries, err := session.Search(folderOrDefault(folder), query)
		if err != nil {
			return err
		}
		result = &remote.Page{
			Messages: summaries,
			Total:    uint32(len(summaries)),
		}
		return nil
	})
	return result, err
}

func (g *Gateway) ListFolders(ctx context.Context, credentials mailbox.Credentials) ([]string, error) {
	var folders []string
	err := g.sessions.WithSession(ctx, credentials, func(session *remote.Session) error {
		var err error
		folders, err = session.ListFolders()
		return err
	})
	return folders, err
}

// SendMessage does not use the mail store: the message is handed to the outbound transport.
func (g *Gateway) SendMessage(ctx context.Context, credentials mailbox.Credentials, request dispatch.Request) (*dispatch.Receipt, error) {
	return g.sender.Send(ctx, credentials, request)
}

func (g *Gateway) mutate(ctx context.Context, credentials mailbox.Credentials, uid uint32, task func(session *remote.Session) error) error {
	if err := validateUid(uid); err != nil {
		return err
	}
	return g.sessions.WithSession(ctx, credentials, task)
}

func validateUid(uid uint32) error {
	if uid == 0 {
		return lib.Validationf("a message uid is required")
	}
	return nil
}

func folderOrDefault(folder string) string {
	if strings.TrimSpace(folder) == "" {
		return mailbox.DefaultFolder
	}
	return folder
}
