package remote

import (
	"net/textproto"
	"strings"

	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-imap"
)

// Search returns the messages of the folder with the query in their subject or their body,
// newest first. An empty query matches nothing.
func (s *Session) Search(folder, query string) ([]mailbox.MessageSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []mailbox.MessageSummary{}, nil
	}
	if _, err := s.selectFolder(folder, true); err != nil {
		return nil, err
	}

	var uids []uint32
	err := s.do(func(c Client) error {
		var err error
		uids, err = c.UidSearch(searchCriteria(query))
		return err
	})
	if err != nil {
		return nil, classify(err, "cannot search messages")
	}
	s.log.Printf("Found %d messages matching %q", len(uids), query)
	if len(uids) == 0 {
		return []mailbox.MessageSummary{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(sortedUids(uids)...)
	summaries, err := s.fetchSummaries(seqset, true)
	if err != nil {
		return nil, err
	}
	mailbox.SortByDateDesc(summaries)
	return summaries, nil
}

func searchCriteria(query string) *imap.SearchCriteria {
	subject := textproto.MIMEHeader{}
	subject.Add("Subject", query)
	return &imap.SearchCriteria{
		Or: [][2]*imap.SearchCriteria{{
			{Header: subject},
			{Body: []string{query}},
		}},
	}
}
