package remote

import (
	"io"
	"sort"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-imap"
)

var (
	headerSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}
	textSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.TextSpecifier},
		Peek:         true,
	}
	fullSection = &imap.BodySectionName{
		Peek: true,
	}
	summaryItems = []imap.FetchItem{
		imap.FetchUid,
		imap.FetchFlags,
		headerSection.FetchItem(),
		textSection.FetchItem(),
	}
	flagItems = []imap.FetchItem{imap.FetchUid, imap.FetchFlags}
)

// fetch receives the messages of the set, by sequence number or by UID
func (s *Session) fetch(seqset *imap.SeqSet, byUid bool, items []imap.FetchItem) ([]*imap.Message, error) {
	var messages []*imap.Message
	err := s.do(func(c Client) error {
		receiver := make(chan *imap.Message, 10)
		done := make(chan error, 1)
		// fetch messages in the background
		go func() {
			if byUid {
				done <- c.UidFetch(seqset, items, receiver)
				return
			}
			done <- c.Fetch(seqset, items, receiver)
		}()
		for msg := range receiver {
			s.log.Printf("Received IMAP message seq=%d uid=%d flags=%+v", msg.SeqNum, msg.Uid, msg.Flags)
			messages = append(messages, msg)
		}
		return <-done
	})
	return messages, err
}

// fetchSummaries returns the summaries of the messages of the set
func (s *Session) fetchSummaries(seqset *imap.SeqSet, byUid bool) ([]mailbox.MessageSummary, error) {
	messages, err := s.fetch(seqset, byUid, summaryItems)
	if err != nil {
		return nil, classify(err, "cannot fetch messages")
	}
	raws := make([]mailbox.RawMessage, 0, len(messages))
	for _, msg := range messages {
		raws = append(raws, s.toRawMessage(msg))
	}
	return mailbox.ExtractAll(raws, s.now()), nil
}

func (s *Session) toRawMessage(msg *imap.Message) mailbox.RawMessage {
	return mailbox.RawMessage{
		Uid:    msg.Uid,
		SeqNum: msg.SeqNum,
		Flags:  lib.StripRecentFlag(msg.Flags),
		Header: s.readSection(msg, headerSection),
		Text:   s.readSection(msg, textSection),
	}
}

// readSection returns nil when the section is missing or cannot be read
func (s *Session) readSection(msg *imap.Message, section *imap.BodySectionName) []byte {
	literal := msg.GetBody(section)
	if literal == nil {
		return nil
	}
	content, err := io.ReadAll(literal)
	if err != nil {
		lib.Warnf(s.log, "cannot read section %q of message uid=%d: %s", section.FetchItem(), msg.Uid, err)
		return nil
	}
	return content
}

// flagsOf returns the flags of the message, or a message not found error
func (s *Session) flagsOf(uid uint32) ([]string, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	messages, err := s.fetch(seqset, true, flagItems)
	if err != nil {
		return nil, classify(err, "cannot fetch message flags")
	}
	for _, msg := range messages {
		if msg.Uid == uid {
			return msg.Flags, nil
		}
	}
	return nil, errMessageNotFound(uid)
}

func uidSet(uid uint32) *imap.SeqSet {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	return seqset
}

func sortedUids(uids []uint32) []uint32 {
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}
