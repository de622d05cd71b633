package cmd

import (
	"context"
	"strconv"

	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/term"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type messagesFlags struct {
	folder string
	page   int
	limit  int
}

var messagesOptions messagesFlags

var messagesCmd = &cobra.Command{
	Use:   "messages <account>",
	Short: "Display one page of messages, newest first",
	RunE:  runMessages,
}

var searchCmd = &cobra.Command{
	Use:   "search <account> <text>",
	Short: "Search messages by subject or body, newest first",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	flag := messagesCmd.Flags()
	flag.StringVarP(&messagesOptions.folder, "folder", "f", mailbox.DefaultFolder, "folder to list")
	flag.IntVarP(&messagesOptions.page, "page", "p", 1, "page number, starting at 1")
	flag.IntVarP(&messagesOptions.limit, "limit", "l", 20, "number of messages per page")
	rootCmd.AddCommand(messagesCmd)

	searchCmd.Flags().StringVarP(&messagesOptions.folder, "folder", "f", mailbox.DefaultFolder, "folder to search")
	rootCmd.AddCommand(searchCmd)
}

func runMessages(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		page, err := gw.ListMessages(context.Background(), creds, messagesOptions.folder, messagesOptions.page, messagesOptions.limit)
		if err != nil {
			return userError(err)
		}
		term.Infof("%d messages in %s", page.Total, messagesOptions.folder)
		return renderSummaries(page.Messages)
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		result, err := gw.SearchMessages(context.Background(), creds, messagesOptions.folder, args[1])
		if err != nil {
			return userError(err)
		}
		term.Infof("%d messages matching %q", result.Total, args[1])
		return renderSummaries(result.Messages)
	})
}

func renderSummaries(summaries []mailbox.MessageSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	table := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"UID", "Date", "From", "Subject", "Seen"},
	})
	for _, summary := range summaries {
		seen := ""
		if summary.Seen {
			seen = "✓"
		}
		table.Data = append(table.Data, []string{
			strconv.FormatUint(uint64(summary.Uid), 10),
			summary.Date.Local().Format("2006-01-02 15:04"),
			summary.From,
			summary.Subject,
			seen,
		})
	}
	return table.Render()
}
