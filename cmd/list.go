package cmd

import (
	"context"
	"strconv"

	"github.com/creativeprojects/webmail/gateway"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <account>",
	Short: "Display list of folders",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		folders, err := gw.ListFolders(context.Background(), creds)
		if err != nil {
			return userError(err)
		}
		table := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"Folder", "Messages"},
		})
		for _, folder := range folders {
			var messages string
			page, err := gw.ListMessages(context.Background(), creds, folder, 1, 1)
			if err == nil {
				messages = strconv.FormatUint(uint64(page.Total), 10)
			}
			table.Data = append(table.Data, []string{folder, messages})
		}
		return table.Render()
	})
}
