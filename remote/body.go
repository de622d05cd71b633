package remote

import (
	"fmt"
	"io"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-imap"
)

var bodyItems = []imap.FetchItem{imap.FetchUid, imap.FetchFlags, fullSection.FetchItem()}

func errMessageNotFound(uid uint32) error {
	return lib.NewError(lib.ErrMessageNotFound, fmt.Sprintf("message uid=%d was not found", uid), nil)
}

// FetchBody returns the parsed content of the message, and marks it as seen.
// Failing to set the seen flag does not fail the call.
func (s *Session) FetchBody(folder string, uid uint32) (*mailbox.MessageBody, error) {
	// read-write to be able to set the seen flag
	if _, err := s.selectFolder(folder, false); err != nil {
		return nil, err
	}

	s.log.Printf("Fetching body of message uid=%d", uid)
	messages, err := s.fetch(uidSet(uid), true, bodyItems)
	if err != nil {
		return nil, classify(err, "cannot fetch message body")
	}
	var found *imap.Message
	for _, msg := range messages {
		if msg.Uid == uid {
			found = msg
			break
		}
	}
	if found == nil {
		return nil, errMessageNotFound(uid)
	}

	literal := found.GetBody(fullSection)
	if literal == nil {
		return nil, fmt.Errorf("server sent no body for message uid=%d", uid)
	}
	raw, err := io.ReadAll(literal)
	if err != nil {
		return nil, classify(err, "cannot read message body")
	}
	body, err := mailbox.ParseBody(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot parse message uid=%d: %w", uid, err)
	}

	if lib.IsSeen(found.Flags) {
		s.log.Printf("Message uid=%d is already seen", uid)
		return body, nil
	}
	if err := s.storeFlag(uid, imap.SeenFlag, true); err != nil {
		lib.Warnf(s.log, "failed to mark message uid=%d as seen: %s", uid, err)
	}
	return body, nil
}
