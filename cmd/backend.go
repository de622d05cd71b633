package cmd

import (
	"fmt"
	"strconv"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/profile"
	"github.com/creativeprojects/webmail/remote"
	"github.com/creativeprojects/webmail/term"
)

func debugLogger(prefix string) lib.Logger {
	if global.verbose {
		return term.NewLogger(prefix)
	}
	return &lib.NoLog{}
}

func newSessionManager() *remote.Manager {
	return remote.NewManager(remote.Config{
		ServerURL:           config.IMAP.Address(),
		NoTLS:               !config.IMAP.UseTLS(),
		SkipTLSVerification: config.IMAP.SkipTLSVerification,
		ConnectTimeout:      config.IMAP.ConnectTimeout,
		CommandTimeout:      config.IMAP.CommandTimeout,
		KeepAlive:           config.IMAP.KeepAlive,
		Compress:            config.IMAP.Compress,
		DebugLogger:         debugLogger("imap"),
	})
}

func newSender() *dispatch.Sender {
	transport := dispatch.NewSMTPTransport(dispatch.SMTPConfig{
		ServerURL:           config.SMTP.Address(),
		TLS:                 config.SMTP.TLS,
		StartTLS:            config.SMTP.UseStartTLS(),
		SkipTLSVerification: config.SMTP.SkipTLSVerification,
		ConnectTimeout:      config.SMTP.ConnectTimeout,
		RateLimit:           config.SMTP.RateLimit,
		Burst:               config.SMTP.Burst,
		DebugLogger:         debugLogger("smtp"),
	})
	return dispatch.NewSender(transport, debugLogger("send"))
}

// newGateway opens the profile store: the caller must close it
func newGateway() (*gateway.Gateway, *profile.BoltStore, error) {
	store, err := profile.NewBoltStoreWithLogger(config.Profiles.File, debugLogger("profile"))
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open profile store: %w", err)
	}
	gw := gateway.New(newSessionManager(), newSender(), store, gateway.Config{
		ArchiveFolder: config.ArchiveFolder,
		DebugLogger:   debugLogger("gateway"),
	})
	return gw, store, nil
}

// withGateway runs the command with a gateway, closing the profile store afterwards
func withGateway(run func(gw *gateway.Gateway) error) error {
	gw, store, err := newGateway()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			term.Warnf("cannot close profile store: %s", err)
		}
	}()
	return run(gw)
}

func parseUid(arg string) (uint32, error) {
	uid, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || uid == 0 {
		return 0, fmt.Errorf("invalid message uid %q", arg)
	}
	return uint32(uid), nil
}

// userError displays the message meant for the user, with the details in verbose mode
func userError(err error) error {
	if err == nil {
		return nil
	}
	if global.verbose {
		return err
	}
	return fmt.Errorf("%s (%s)", lib.UserMessage(err), lib.KindOf(err))
}
