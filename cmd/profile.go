package cmd

import (
	"github.com/creativeprojects/webmail/gateway"
	"github.com/creativeprojects/webmail/profile"
	"github.com/creativeprojects/webmail/term"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type profileFlags struct {
	name      string
	signature string
	recovery  string
	avatar    string
}

var profileOptions profileFlags

var profileCmd = &cobra.Command{
	Use:   "profile <address>",
	Short: "Display or update the profile of an address",
	Long:  "Display the profile of an address. Any flag given updates the field, the other fields are kept.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	flag := profileCmd.Flags()
	flag.StringVar(&profileOptions.name, "name", "", "display name")
	flag.StringVar(&profileOptions.signature, "signature", "", "signature appended by the client")
	flag.StringVar(&profileOptions.recovery, "recovery", "", "recovery address")
	flag.StringVar(&profileOptions.avatar, "avatar", "", "avatar (URL or data URI)")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	address := args[0]
	return withGateway(func(gw *gateway.Gateway) error {
		view, err := gw.Profile(address)
		if err != nil {
			return userError(err)
		}
		flags := cmd.Flags()
		update := flags.Changed("name") || flags.Changed("signature") || flags.Changed("recovery")
		if update {
			stored := profile.Profile{
				DisplayName:     view.DisplayName,
				Signature:       view.Signature,
				RecoveryAddress: view.RecoveryAddress,
			}
			if flags.Changed("name") {
				stored.DisplayName = profileOptions.name
			}
			if flags.Changed("signature") {
				stored.Signature = profileOptions.signature
			}
			if flags.Changed("recovery") {
				stored.RecoveryAddress = profileOptions.recovery
			}
			if err := gw.UpdateProfile(address, stored); err != nil {
				return userError(err)
			}
		}
		if flags.Changed("avatar") {
			if err := gw.UpdateAvatar(address, profileOptions.avatar, ""); err != nil {
				return userError(err)
			}
		}
		if update || flags.Changed("avatar") {
			term.Successf("profile of %s updated", address)
			if view, err = gw.Profile(address); err != nil {
				return userError(err)
			}
		}
		avatar, err := gw.Avatar(address)
		if err != nil {
			return userError(err)
		}
		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Address", view.Address},
			{"Name", view.DisplayName},
			{"Signature", view.Signature},
			{"Recovery", view.RecoveryAddress},
			{"Avatar", shorten(avatar, 60)},
		}).Render()
	})
}

func shorten(value string, length int) string {
	if len(value) <= length {
		return value
	}
	return value[:length] + "..."
}
