package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/creativeprojects/webmail/api"
	"github.com/creativeprojects/webmail/gateway"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "address to listen to, overrides the configuration")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	listen := config.HTTP.Listen
	if serveListen != "" {
		listen = serveListen
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withGateway(func(gw *gateway.Gateway) error {
		server := api.New(api.Config{
			Listen:         listen,
			CORSOrigins:    config.HTTP.CORSOrigins,
			SessionTTL:     config.HTTP.SessionTTL,
			RequestTimeout: config.HTTP.RequestTimeout,
			SecureCookie:   config.HTTP.SecureCookie,
			DebugLogger:    debugLogger("http"),
		}, gw)
		return server.Start(ctx)
	})
}
