package mailbox

import (
	"bufio"
	"bytes"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/creativeprojects/webmail/lib"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

const (
	UnknownSender = "(unknown)"
	NoSubject     = "(no subject)"
	PreviewLength = 200
)

var (
	angledAddress = regexp.MustCompile(`<([^<>]*)>`)
	whitespaces   = regexp.MustCompile(`\s+`)
)

// Extract builds the summary of a raw message. It never fails: every field that cannot be
// read falls back to a placeholder. now is the date used when the message has no valid date.
func Extract(raw RawMessage, now time.Time) MessageSummary {
	header := parseHeader(raw.Header)
	from, email := Sender(header)
	return MessageSummary{
		Uid:     raw.Uid,
		SeqNum:  raw.SeqNum,
		From:    from,
		Email:   email,
		Subject: Subject(header),
		Date:    Date(header, now),
		Seen:    lib.IsSeen(raw.Flags),
		Preview: Preview(raw.Text),
	}
}

// ExtractAll runs Extract on each message, keeping the order.
func ExtractAll(raws []RawMessage, now time.Time) []MessageSummary {
	summaries := make([]MessageSummary, 0, len(raws))
	for _, raw := range raws {
		summaries = append(summaries, Extract(raw, now))
	}
	return summaries
}

// parseHeader returns whatever could be read from the raw header, possibly nothing
func parseHeader(raw []byte) mail.Header {
	if len(raw) == 0 {
		return mail.Header{}
	}
	// the section may come without its final blank line
	if !bytes.HasSuffix(raw, []byte("\r\n\r\n")) && !bytes.HasSuffix(raw, []byte("\n\n")) {
		raw = append(append([]byte{}, raw...), '\r', '\n', '\r', '\n')
	}
	header, _ := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	return mail.Header{Header: message.Header{Header: header}}
}

// Sender returns the display name and the address of the first sender.
func Sender(header mail.Header) (string, string) {
	if addresses, err := header.AddressList("From"); err == nil && len(addresses) > 0 && addresses[0] != nil {
		return SenderFromAddress(addresses[0].Name, addresses[0].Address)
	}
	raw, err := header.Text("From")
	if err != nil {
		raw = header.Get("From")
	}
	return SenderFromString(raw)
}

// SenderFromAddress is used when the sender is already split into name and address
func SenderFromAddress(name, address string) (string, string) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	switch {
	case name != "":
		return name, address
	case address != "":
		return address, address
	default:
		return UnknownSender, ""
	}
}

// SenderFromString splits a "Name <address>" string. Without angle brackets the whole string
// is used as both the name and the address, when it looks like an address.
func SenderFromString(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownSender, ""
	}
	if match := angledAddress.FindStringSubmatchIndex(raw); match != nil {
		address := strings.TrimSpace(raw[match[2]:match[3]])
		name := strings.TrimSpace(raw[:match[0]] + raw[match[1]:])
		name = strings.TrimSpace(strings.Trim(name, `"'`))
		if address == "" {
			return UnknownSender, ""
		}
		if name == "" {
			name = raw
		}
		return name, address
	}
	if strings.Contains(raw, "@") && !strings.ContainsAny(raw, " \t<>") {
		return raw, raw
	}
	return UnknownSender, ""
}

// Subject returns the decoded subject, or the raw one when it cannot be decoded
func Subject(header mail.Header) string {
	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return NoSubject
	}
	return subject
}

// Date returns the date of the header, or now if it is missing or invalid
func Date(header mail.Header, now time.Time) time.Time {
	date, err := header.Date()
	if err != nil || date.IsZero() {
		return now
	}
	return date
}

// Preview returns the first characters of the text with whitespace collapsed.
func Preview(text []byte) string {
	if len(text) == 0 {
		return ""
	}
	// no need to decode more bytes than the longest possible preview
	if max := PreviewLength * utf8.UTFMax; len(text) > max {
		text = text[:max]
	}
	runes := []rune(strings.ToValidUTF8(string(text), ""))
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return whitespaces.ReplaceAllString(string(runes), " ")
}

// SortByUidDesc orders the summaries newest first, by stable identifier
func SortByUidDesc(summaries []MessageSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Uid > summaries[j].Uid
	})
}

// SortByDateDesc orders the summaries newest first, by date. Identical dates keep their order.
func SortByDateDesc(summaries []MessageSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Date.After(summaries[j].Date)
	})
}
