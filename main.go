package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

func main() {
	log.SetHandler(cli.New(os.Stderr))
	log.SetLevel(log.InfoLevel)

	root := &cobra.Command{
		Use:           "dnslatency",
		Short:         "Offline percentile and CDF analysis of DNS resolution latency logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(analyzeSubcommand())
	root.AddCommand(percentileSubcommand())
	root.AddCommand(synthSubcommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("dnslatency failed")
		stop()
		os.Exit(1)
	}
}
