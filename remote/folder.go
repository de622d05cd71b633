package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creativeprojects/webmail/lib"
	"github.com/emersion/go-imap"
)

// ListFolders returns the name of every folder of the account
func (s *Session) ListFolders() ([]string, error) {
	var names []string
	err := s.do(func(c Client) error {
		mailboxes := make(chan *imap.MailboxInfo, 10)
		done := make(chan error, 1)
		go func() {
			done <- c.List("", "*", mailboxes)
		}()

		s.log.Print("Listing mailboxes:")
		names = make([]string, 0, 10)
		for m := range mailboxes {
			s.log.Printf("* %q: %+v (delimiter = %q)", m.Name, m.Attributes, m.Delimiter)
			names = append(names, m.Name)
		}
		return <-done
	})
	if err != nil {
		return nil, classify(err, "cannot list folders")
	}
	return names, nil
}

// CreateFolder creates a folder. It returns no error when the folder already exists.
func (s *Session) CreateFolder(name string) error {
	folders, err := s.ListFolders()
	if err != nil {
		return err
	}
	if hasFolder(folders, name) {
		return nil
	}
	s.log.Printf("Creating mailbox %q", name)
	err = s.do(func(c Client) error {
		return c.Create(name)
	})
	if err != nil {
		return classify(err, fmt.Sprintf("cannot create folder %q", name))
	}
	return nil
}

// selectFolder opens the folder, read-write when the messages are going to be changed
func (s *Session) selectFolder(name string, readOnly bool) (*imap.MailboxStatus, error) {
	var status *imap.MailboxStatus
	err := s.do(func(c Client) error {
		var err error
		s.log.Printf("Selecting mailbox %q (read-only = %v)", name, readOnly)
		status, err = c.Select(name, readOnly)
		return err
	})
	if errors.Is(err, lib.ErrSessionClosed) {
		return nil, err
	}
	if err != nil {
		switch kindOf(err) {
		case nil, lib.ErrMailboxNotFound:
			// the server answered NO: the folder is not available
			return nil, lib.NewError(lib.ErrMailboxNotFound, fmt.Sprintf("folder %q does not exist", name), err)
		default:
			return nil, classify(err, fmt.Sprintf("cannot open folder %q", name))
		}
	}
	if status == nil {
		return nil, lib.NewError(lib.ErrMailboxNotFound, fmt.Sprintf("folder %q does not exist", name), nil)
	}
	return status, nil
}

func hasFolder(folders []string, name string) bool {
	for _, folder := range folders {
		if folder == name || (strings.EqualFold(name, "INBOX") && strings.EqualFold(folder, "INBOX")) {
			return true
		}
	}
	return false
}
