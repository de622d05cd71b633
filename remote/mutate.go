package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creativeprojects/webmail/lib"
	"github.com/emersion/go-imap"
)

// SetFlag adds (on) or removes a flag. Nothing is sent when the message is already in that state.
func (s *Session) SetFlag(folder string, uid uint32, flag string, on bool) error {
	if _, err := s.selectFolder(folder, false); err != nil {
		return err
	}
	flags, err := s.flagsOf(uid)
	if err != nil {
		return err
	}
	if lib.HasFlag(flags, flag) == on {
		s.log.Printf("Message uid=%d flag %s is already %v", uid, flag, on)
		return nil
	}
	if err := s.storeFlag(uid, flag, on); err != nil {
		return classify(err, fmt.Sprintf("cannot change flag %s of message uid=%d", flag, uid))
	}
	return nil
}

// MoveToArchive moves the message to the archive folder, creating it first when needed.
func (s *Session) MoveToArchive(folder string, uid uint32, archive string) error {
	s.provisionFolder(archive)

	if _, err := s.selectFolder(folder, false); err != nil {
		return err
	}
	if _, err := s.flagsOf(uid); err != nil {
		return err
	}
	if folder == archive {
		s.log.Printf("Message uid=%d is already in %q", uid, archive)
		return nil
	}
	err := s.do(func(c Client) error {
		return c.UidMove(uidSet(uid), archive)
	})
	if isMoveUnsupported(err) {
		s.log.Printf("Server cannot MOVE to %q, copying the message instead", archive)
		err = s.copyAndExpunge(folder, uid, archive)
	} else if err != nil {
		err = archiveError(folder, uid, archive, err)
	}
	if err != nil {
		return err
	}
	s.log.Printf("Archived message uid=%d from %q to %q", uid, folder, archive)
	return nil
}

// DeletePermanently flags the message as deleted and expunges it. There is no undo.
func (s *Session) DeletePermanently(folder string, uid uint32) error {
	if _, err := s.selectFolder(folder, false); err != nil {
		return err
	}
	if _, err := s.flagsOf(uid); err != nil {
		return err
	}
	if err := s.storeFlag(uid, imap.DeletedFlag, true); err != nil {
		return classify(err, fmt.Sprintf("cannot flag message uid=%d as deleted", uid))
	}
	if err := s.expunge(uid); err != nil {
		return classify(err, fmt.Sprintf("cannot expunge %q", folder))
	}
	s.log.Printf("Deleted message uid=%d from %q", uid, folder)
	return nil
}

// provisionFolder creates the folder when missing. Failures are only logged:
// the folder may have been created in the meantime, and the next command will tell.
func (s *Session) provisionFolder(name string) {
	folders, err := s.ListFolders()
	if err != nil {
		lib.Warnf(s.log, "could not check folder %q: %s", name, err)
		return
	}
	if hasFolder(folders, name) {
		return
	}
	s.log.Printf("Folder %q not found, attempting to create", name)
	err = s.do(func(c Client) error {
		return c.Create(name)
	})
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "exist") {
		lib.Warnf(s.log, "could not create folder %q: %s", name, err)
		return
	}
	s.log.Printf("Folder %q created", name)
}

// copyAndExpunge is the UID MOVE of servers without a working MOVE command
func (s *Session) copyAndExpunge(folder string, uid uint32, dest string) error {
	err := s.do(func(c Client) error {
		return c.UidCopy(uidSet(uid), dest)
	})
	if err != nil {
		return archiveError(folder, uid, dest, err)
	}
	if err := s.storeFlag(uid, imap.DeletedFlag, true); err != nil {
		return classify(err, fmt.Sprintf("message uid=%d copied to %q but not removed from %q", uid, dest, folder))
	}
	if err := s.expunge(uid); err != nil {
		return classify(err, fmt.Sprintf("message uid=%d copied to %q but not expunged from %q", uid, dest, folder))
	}
	return nil
}

// archiveError classifies a refused MOVE or COPY. The source folder and the message
// were already found, so an answer without a known kind is about the destination.
func archiveError(folder string, uid uint32, archive string, err error) error {
	if errors.Is(err, lib.ErrSessionClosed) {
		return err
	}
	switch kindOf(err) {
	case nil, lib.ErrMailboxNotFound:
		return lib.NewError(lib.ErrMailboxNotFound,
			fmt.Sprintf("cannot archive: source folder %q or destination folder %q does not exist", folder, archive),
			err,
		)
	default:
		return classify(err, fmt.Sprintf("cannot move message uid=%d to %q", uid, archive))
	}
}

// expunge removes the message flagged as deleted. Without UIDPLUS every message
// flagged as deleted in the folder goes with it.
func (s *Session) expunge(uid uint32) error {
	return s.do(func(c Client) error {
		if s.expunger != nil {
			return s.expunger.UidExpunge(uidSet(uid), nil)
		}
		return c.Expunge(nil)
	})
}

func isMoveUnsupported(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "move") && strings.Contains(text, "not supported")
}

func (s *Session) storeFlag(uid uint32, flag string, on bool) error {
	var op imap.FlagsOp = imap.AddFlags
	if !on {
		op = imap.RemoveFlags
	}
	return s.do(func(c Client) error {
		return c.UidStore(uidSet(uid), imap.FormatFlagsOp(op, true), []interface{}{flag}, nil)
	})
}
