package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/term"
	"github.com/spf13/cobra"
)

type sendFlags struct {
	to      []string
	subject string
	text    string
	html    string
	attach  []string
}

var sendOptions sendFlags

var sendCmd = &cobra.Command{
	Use:   "send <account>",
	Short: "Send a message from the account",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	flag := sendCmd.Flags()
	flag.StringSliceVarP(&sendOptions.to, "to", "t", nil, "recipient addresses (comma separated or repeated)")
	flag.StringVarP(&sendOptions.subject, "subject", "s", "", "subject of the message")
	flag.StringVar(&sendOptions.text, "text", "", "plain text content")
	flag.StringVar(&sendOptions.html, "html", "", "HTML content")
	flag.StringSliceVarP(&sendOptions.attach, "attach", "a", nil, "files to attach")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	attachments, err := loadAttachments(sendOptions.attach)
	if err != nil {
		return err
	}
	request := dispatch.Request{
		Recipients:  sendOptions.to,
		Subject:     sendOptions.subject,
		Text:        sendOptions.text,
		HTML:        sendOptions.html,
		Attachments: attachments,
	}
	return withGateway(func(gw *gateway.Gateway) error {
		receipt, err := gw.SendMessage(context.Background(), creds, request)
		if err != nil {
			return userError(err)
		}
		term.Success(fmt.Sprintf("message %s sent to %d recipient(s)", receipt.MessageID, len(receipt.Recipients)))
		return nil
	})
}

func loadAttachments(files []string) ([]mailbox.Attachment, error) {
	attachments := make([]mailbox.Attachment, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("cannot read attachment: %w", err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(file))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		attachments = append(attachments, mailbox.Attachment{
			Filename:    filepath.Base(file),
			ContentType: contentType,
			Content:     content,
		})
	}
	return attachments, nil
}
