package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/creativeprojects/webmail/lib"
)

var (
	timeoutMarkers = []string{"timeout", "timed out", "deadline exceeded"}
	refusedMarkers = []string{"connection refused"}
	authMarkers    = []string{"authenticat", "invalid credentials", "bad username or password", "login failed"}
	mailboxMarkers = []string{
		"does not exist", "doesn't exist", "no such mailbox", "mailbox not found",
		"unknown mailbox", "[nonexistent]", "[trycreate]",
	}
	connectionMarkers = []string{
		"use of closed network connection", "connection reset", "broken pipe", "already logged out",
	}
)

// kindOf guesses the kind of a low level failure, nil when it does not look like any.
func kindOf(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return lib.ErrConnectionTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return lib.ErrConnectionTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return lib.ErrConnectionRefused
	}
	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, timeoutMarkers):
		return lib.ErrConnectionTimeout
	case containsAny(text, refusedMarkers):
		return lib.ErrConnectionRefused
	case containsAny(text, authMarkers):
		return lib.ErrAuthentication
	case containsAny(text, mailboxMarkers):
		return lib.ErrMailboxNotFound
	case containsAny(text, connectionMarkers), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return lib.ErrConnection
	case errors.As(err, &netErr):
		return lib.ErrConnection
	}
	return nil
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// classify wraps err into a lib.Error when its kind can be found. Errors already classified
// are returned as is, the others are wrapped with the message.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var classified *lib.Error
	if errors.As(err, &classified) {
		return err
	}
	kind := kindOf(err)
	if kind == nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return lib.NewError(kind, userMessage(kind, message), err)
}

// classifyConnect is used on failures before the login
func classifyConnect(err error, serverURL string) error {
	kind := kindOf(err)
	switch kind {
	case lib.ErrConnectionTimeout:
		return lib.NewError(kind, "timed out connecting to the mail server, check the network or the server settings", err)
	case lib.ErrConnectionRefused:
		return lib.NewError(kind, "the mail server refused the connection", err)
	default:
		return lib.NewError(lib.ErrConnection, fmt.Sprintf("cannot connect to server %s", serverURL), err)
	}
}

// classifyLogin is used on a failed login: anything that is not a network failure is a rejected login.
func classifyLogin(err error) error {
	kind := kindOf(err)
	switch kind {
	case lib.ErrConnectionTimeout, lib.ErrConnectionRefused, lib.ErrConnection:
		return lib.NewError(kind, userMessage(kind, "login failed"), err)
	default:
		return lib.NewError(lib.ErrAuthentication, "authentication failure, check the address and password", err)
	}
}

func userMessage(kind error, message string) string {
	switch kind {
	case lib.ErrConnectionTimeout:
		return message + ": timed out"
	case lib.ErrConnectionRefused:
		return message + ": connection refused"
	case lib.ErrConnection:
		return message + ": connection to the mail server lost"
	default:
		return message
	}
}
