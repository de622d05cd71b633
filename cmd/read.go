package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/term"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var messageFolder string

var readCmd = &cobra.Command{
	Use:   "read <account> <uid>",
	Short: "Display a message and mark it as read",
	Args:  cobra.ExactArgs(2),
	RunE:  runRead,
}

var archiveCmd = &cobra.Command{
	Use:   "archive <account> <uid>",
	Short: "Move a message to the archive folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(args, "archived", func(gw *gateway.Gateway) mutation { return gw.ArchiveMessage })
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <account> <uid>",
	Short: "Delete a message permanently",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(args, "deleted", func(gw *gateway.Gateway) mutation { return gw.DeleteMessage })
	},
}

var markUnread bool

var markCmd = &cobra.Command{
	Use:   "mark <account> <uid>",
	Short: "Mark a message as read, or unread with --unread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if markUnread {
			return runMutation(args, "marked as unread", func(gw *gateway.Gateway) mutation { return gw.MarkUnread })
		}
		return runMutation(args, "marked as read", func(gw *gateway.Gateway) mutation { return gw.MarkRead })
	},
}

func init() {
	for _, command := range []*cobra.Command{readCmd, archiveCmd, deleteCmd, markCmd} {
		command.Flags().StringVarP(&messageFolder, "folder", "f", mailbox.DefaultFolder, "folder of the message")
		rootCmd.AddCommand(command)
	}
	markCmd.Flags().BoolVar(&markUnread, "unread", false, "mark the message as unread")
}

type mutation func(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error

func runMutation(args []string, done string, operation func(gw *gateway.Gateway) mutation) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	uid, err := parseUid(args[1])
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		if err := operation(gw)(context.Background(), creds, messageFolder, uid); err != nil {
			return userError(err)
		}
		term.Success(fmt.Sprintf("message %d %s", uid, done))
		return nil
	})
}

func runRead(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	uid, err := parseUid(args[1])
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		body, err := gw.GetMessageBody(context.Background(), creds, messageFolder, uid)
		if err != nil {
			return userError(err)
		}
		pterm.DefaultSection.Println(body.From)
		text := body.Text
		if text == "" {
			text = body.HTML
		}
		fmt.Println(text)
		for _, attachment := range body.Attachments {
			term.Infof("attachment: %s (%s, %d bytes)", attachment.Filename, attachment.ContentType, len(attachment.Content))
		}
		return nil
	})
}
