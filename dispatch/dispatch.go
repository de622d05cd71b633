package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/mailbox"
)

// Request is the content of a message to send
type Request struct {
	Recipients  []string
	Subject     string
	Text        string
	HTML        string
	Attachments []mailbox.Attachment
}

// Receipt of a message accepted by the transport
type Receipt struct {
	MessageID  string   `json:"messageId"`
	Recipients []string `json:"recipients"`
}

// Sender validates and composes messages, then hands them to the transport.
type Sender struct {
	transport Transport
	log       lib.Logger
	now       func() time.Time
}

func NewSender(transport Transport, log lib.Logger) *Sender {
	if log == nil {
		log = &lib.NoLog{}
	}
	return &Sender{
		transport: transport,
		log:       log,
		now:       time.Now,
	}
}

// Validate checks the request without sending anything, and returns the parsed recipients.
func Validate(request Request) ([]string, error) {
	if strings.TrimSpace(request.Subject) == "" {
		return nil, lib.Validationf("a subject is required")
	}
	if request.Text == "" && request.HTML == "" {
		return nil, lib.Validationf("a text or HTML content is required")
	}
	return ParseRecipients(request.Recipients...)
}

// Send delivers the message from the credentials address. Nothing is sent when the request is invalid.
func (s *Sender) Send(ctx context.Context, credentials mailbox.Credentials, request Request) (*Receipt, error) {
	if !credentials.Valid() {
		return nil, lib.Validationf("address and password are required")
	}
	recipients, err := Validate(request)
	if err != nil {
		return nil, err
	}
	envelope, err := compose(credentials.Address, recipients, request, s.now())
	if err != nil {
		return nil, err
	}

	s.log.Printf("Sending message from %s to %s", credentials.Address, strings.Join(recipients, ", "))
	if err := s.transport.Deliver(ctx, credentials, envelope); err != nil {
		return nil, err
	}
	return &Receipt{
		MessageID:  envelope.MessageID,
		Recipients: recipients,
	}, nil
}
