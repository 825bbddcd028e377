package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/kcz17/dnslatency/config"
	"github.com/kcz17/dnslatency/pipeline"
	"github.com/spf13/cobra"
)

func analyzeSubcommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Runs every analysis declared in the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := pipeline.NewLogger(cfg.Logging, os.Stdout)
			if err != nil {
				return err
			}
			defer logger.Close()

			run, err := pipeline.NewRun(cfg, logger, pipeline.Options{Out: os.Stdout, Progress: os.Stderr})
			if err != nil {
				return err
			}
			results, err := run.Execute(cmd.Context())
			if err != nil {
				return err
			}
			for _, result := range results {
				log.WithFields(log.Fields{
					"read":      result.Loaded.Read,
					"skipped":   result.Loaded.Skipped,
					"kept":      result.Kept,
					"artifacts": len(result.Artifacts),
				}).Info(fmt.Sprintf("analysis %s done", result.Analysis))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration")
	return cmd
}
