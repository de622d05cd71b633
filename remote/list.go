package remote

import (
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-imap"
)

// Page of a message listing. Total is the number of messages in the folder.
type Page struct {
	Messages []mailbox.MessageSummary `json:"emails"`
	Total    uint32                   `json:"total"`
}

// ListMessages returns one page of the folder, newest first. A page past the end has no message
// but still carries the total.
func (s *Session) ListMessages(folder string, page, limit int) (*Page, error) {
	if err := mailbox.ValidatePage(page, limit); err != nil {
		return nil, err
	}
	status, err := s.selectFolder(folder, true)
	if err != nil {
		return nil, err
	}
	s.log.Printf("Total messages in %q: %d", folder, status.Messages)

	window, err := mailbox.Paginate(status.Messages, page, limit)
	if err != nil {
		return nil, err
	}
	if window.IsEmpty() {
		s.log.Printf("Page %d of %d messages is out of range", page, status.Messages)
		return &Page{
			Messages: []mailbox.MessageSummary{},
			Total:    status.Messages,
		}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(window.Start, window.End)
	s.log.Printf("Fetching messages by sequence number range %d:%d", window.Start, window.End)
	summaries, err := s.fetchSummaries(seqset, false)
	if err != nil {
		return nil, err
	}
	mailbox.SortByUidDesc(summaries)
	return &Page{
		Messages: summaries,
		Total:    status.Messages,
	}, nil
}
