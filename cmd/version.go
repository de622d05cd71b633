package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Display version information",
	Annotations: map[string]string{noConfig: ""},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("webmail %s (%s) compiled on %s by %s with %s %s/%s\n",
			appVersion, appCommit, appDate, appBuiltBy, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
