package cmd

import (
	"context"

	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/term"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <account>",
	Short: "Check the account can log in to the mail server",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds, err := credentials(args)
	if err != nil {
		return err
	}
	return withGateway(func(gw *gateway.Gateway) error {
		account, err := gw.Login(context.Background(), creds)
		if err != nil {
			return userError(err)
		}
		term.Successf("logged in as %s <%s>", account.DisplayName, account.Address)
		return nil
	})
}
