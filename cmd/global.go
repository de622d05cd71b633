package cmd

import (
	"errors"
	"fmt"

	"github.com/creativeprojects/webmail/cfg"
	"github.com/creativeprojects/webmail/mailbox"
)

type GlobalFlags struct {
	configFile string
	quiet      bool
	verbose    bool
}

var (
	global GlobalFlags
	config *cfg.Config
)

// credentials returns the login of the account named in the configuration
func credentials(args []string) (mailbox.Credentials, error) {
	if len(args) < 1 {
		return mailbox.Credentials{}, errors.New("missing account name")
	}
	accountName := args[0]
	account, ok := config.Accounts[accountName]
	if !ok {
		return mailbox.Credentials{}, fmt.Errorf("account not found: %s", accountName)
	}
	return mailbox.Credentials{
		Address: account.Username,
		Secret:  account.Password,
	}, nil
}
