package mailbox

import "time"

// DefaultFolder is used when the caller does not name a folder
const DefaultFolder = "INBOX"

// Credentials of the end user, used for the mail store and the outbound transport.
// They live as long as one call and are never stored by this package.
type Credentials struct {
	Address string
	Secret  string
}

// Valid returns true when both the address and the secret are set
func (c Credentials) Valid() bool {
	return c.Address != "" && c.Secret != ""
}

// String never discloses the secret
func (c Credentials) String() string {
	return c.Address
}

// MessageSummary is one line of a message listing or search result.
type MessageSummary struct {
	// Stable identifier: mutations use it, never the sequence number.
	Uid uint32 `json:"uid"`
	// Position in the folder when the summary was fetched. Volatile.
	SeqNum  uint32    `json:"seq"`
	From    string    `json:"from"`
	Email   string    `json:"email"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Seen    bool      `json:"seen"`
	Preview string    `json:"preview"`
}

// Attachment content is kept in memory, it is encoded as base64 in JSON.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// MessageBody is the parsed content of one message.
type MessageBody struct {
	HTML        string       `json:"html"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
	// From is the sender as displayed ("Name <address>")
	From  string `json:"from"`
	Email string `json:"email"`
}

// RawMessage holds the parts fetched from the store for one message, before extraction.
type RawMessage struct {
	Uid    uint32
	SeqNum uint32
	Flags  []string
	// Header is the raw header section, nil when the store did not send it
	Header []byte
	// Text is the raw text section, nil when the store did not send it
	Text []byte
}
