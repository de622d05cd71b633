package cmd

import (
	"fmt"
	"os"

	"github.com/creativeprojects/webmail/cfg"
	"github.com/creativeprojects/webmail/term"
	"github.com/spf13/cobra"
)

// commands with this annotation run without a configuration file
const noConfig = "noConfig"

var rootCmd = &cobra.Command{
	Use:   "webmail",
	Short: "Webmail gateway: browse, search and send mail from your own mailbox",
	Long:  "\nWebmail gateway: browse, search and send mail from your own mailbox",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLog()
		if _, skip := cmd.Annotations[noConfig]; skip {
			return nil
		}
		return initConfig()
	},
	SilenceUsage: true,
}

func init() {
	flag := rootCmd.PersistentFlags()
	flag.StringVarP(&global.configFile, "config", "c", "webmail.yaml", "configuration file")
	flag.BoolVarP(&global.quiet, "quiet", "q", false, "only display warnings and errors")
	flag.BoolVarP(&global.verbose, "verbose", "v", false, "display debugging information")
}

func initConfig() error {
	var err error
	config, err = cfg.LoadFromFile(global.configFile)
	if err != nil {
		return fmt.Errorf("cannot open or read configuration file: %w", err)
	}
	return nil
}

func initLog() {
	switch {
	case global.verbose:
		term.SetLevel(term.LevelDebug)
	case global.quiet:
		term.SetLevel(term.LevelWarn)
	}
}

func Execute(version, commit, date, builtBy string) {
	setApp(version, commit, date, builtBy)
	if err := rootCmd.Execute(); err != nil {
		term.Error(err)
		os.Exit(1)
	}
}
