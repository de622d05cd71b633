package dispatch

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/creativeprojects/webmail/mailbox"
	"github.com/emersion/go-message/mail"
)

// Envelope is a composed message ready to be handed to a Transport
type Envelope struct {
	From      string
	To        []string
	MessageID string
	Data      []byte
}

// compose builds a multipart/mixed message. The text and HTML versions go into a
// multipart/alternative part, followed by one part per attachment.
func compose(from string, to []string, request Request, now time.Time) (*Envelope, error) {
	var header mail.Header
	header.SetDate(now)
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", toAddresses(to))
	header.SetSubject(request.Subject)
	if err := header.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("cannot generate message ID: %w", err)
	}
	messageID, err := header.MessageID()
	if err != nil {
		return nil, fmt.Errorf("cannot read generated message ID: %w", err)
	}

	buffer := &bytes.Buffer{}
	writer, err := mail.CreateWriter(buffer, header)
	if err != nil {
		return nil, err
	}

	inline, err := writer.CreateInline()
	if err != nil {
		return nil, err
	}
	if request.Text != "" {
		if err := writeInline(inline, "text/plain", request.Text); err != nil {
			return nil, err
		}
	}
	if request.HTML != "" {
		if err := writeInline(inline, "text/html", request.HTML); err != nil {
			return nil, err
		}
	}
	if err := inline.Close(); err != nil {
		return nil, err
	}

	for _, attachment := range request.Attachments {
		if err := writeAttachment(writer, attachment); err != nil {
			return nil, fmt.Errorf("cannot attach %q: %w", attachment.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &Envelope{
		From:      from,
		To:        to,
		MessageID: "<" + messageID + ">",
		Data:      buffer.Bytes(),
	}, nil
}

func writeInline(inline *mail.InlineWriter, contentType, content string) error {
	var header mail.InlineHeader
	header.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := inline.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(part, content); err != nil {
		return err
	}
	return part.Close()
}

func writeAttachment(writer *mail.Writer, attachment mailbox.Attachment) error {
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(attachment.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var header mail.AttachmentHeader
	header.Set("Content-Type", contentType)
	header.SetFilename(attachment.Filename)
	header.Set("Content-Transfer-Encoding", "base64")
	part, err := writer.CreateAttachment(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(attachment.Content); err != nil {
		return err
	}
	return part.Close()
}

func toAddresses(to []string) []*mail.Address {
	addresses := make([]*mail.Address, len(to))
	for i, address := range to {
		addresses[i] = &mail.Address{Address: address}
	}
	return addresses
}
