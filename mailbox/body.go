package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// ParseBody parses a full RFC 5322 message into its text, HTML and attachments.
// A message that cannot be parsed as MIME is returned as plain text.
func ParseBody(raw []byte) (*MessageBody, error) {
	body := &MessageBody{
		Attachments: []Attachment{},
	}
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		if reader != nil {
			_ = reader.Close()
		}
		body.Text = string(raw)
		return body, nil
	}
	if reader == nil {
		return nil, fmt.Errorf("cannot read message: %w", err)
	}
	defer reader.Close()

	body.From, body.Email = senderText(reader.Header)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return body, fmt.Errorf("cannot read message part: %w", err)
		}
		if part == nil {
			continue
		}
		content, err := io.ReadAll(part.Body)
		if err != nil {
			return body, fmt.Errorf("cannot read message part: %w", err)
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := header.ContentType()
			switch {
			case contentType == "text/plain" && body.Text == "":
				body.Text = string(content)
			case contentType == "text/html" && body.HTML == "":
				body.HTML = string(content)
			case strings.HasPrefix(contentType, "text/"):
				// alternative versions of a text already found
			default:
				body.Attachments = append(body.Attachments, Attachment{
					Filename:    inlineFilename(header, params),
					ContentType: contentType,
					Content:     content,
				})
			}

		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			contentType, _, _ := header.ContentType()
			body.Attachments = append(body.Attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Content:     content,
			})
		}
	}
	return body, nil
}

// senderText returns the sender as displayed and its address
func senderText(header mail.Header) (string, string) {
	addresses, err := header.AddressList("From")
	if err != nil || len(addresses) == 0 {
		text, _ := header.Text("From")
		return strings.TrimSpace(text), ""
	}
	first := addresses[0]
	if first.Name == "" {
		return first.Address, first.Address
	}
	return first.Name + " <" + first.Address + ">", first.Address
}

func inlineFilename(header *mail.InlineHeader, params map[string]string) string {
	if _, dispositionParams, err := header.ContentDisposition(); err == nil {
		if filename := dispositionParams["filename"]; filename != "" {
			return decodeWord(filename)
		}
	}
	return decodeWord(params["name"])
}

func decodeWord(value string) string {
	decoded, err := new(mime.WordDecoder).DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
