package lib

import (
	"fmt"
	"math/rand"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyz " +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 " +
	",./;'\\ \" []{}<>?:|!@$%^&*()_+-= " +
	"\r\n\r\n\r\n "

const template = "From: %s\r\n" +
	"To: %s\r\n" +
	"Subject: %s\r\n" +
	"Date: %s\r\n" +
	"Message-ID: <%d@localhost>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n%s"

var seededRand *rand.Rand = rand.New(
	rand.NewSource(time.Now().UnixMilli()))

// SampleEmail describes a plain text message built by GenerateEmail
type SampleEmail struct {
	From    string
	To      string
	Subject string
	Date    time.Time
	Body    string
}

func stringWithCharset(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GenerateEmail returns an RFC 5322 message. An empty body is replaced by random text.
func GenerateEmail(sample SampleEmail) []byte {
	if sample.Date.IsZero() {
		sample.Date = time.Now()
	}
	if sample.Body == "" {
		sample.Body = stringWithCharset(seededRand.Intn(3000)+1, charset)
	}
	msg := fmt.Sprintf(template,
		sample.From,
		sample.To,
		sample.Subject,
		sample.Date.Format(time.RFC1123Z),
		seededRand.Int63(),
		sample.Body,
	)
	return []byte(msg)
}
