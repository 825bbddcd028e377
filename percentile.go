package main

import (
	"os"

	"github.com/kcz17/dnslatency/logging"
	"github.com/kcz17/dnslatency/pipeline"
	"github.com/kcz17/dnslatency/stats"
	"github.com/spf13/cobra"
)

func percentileSubcommand() *cobra.Command {
	var (
		column      string
		groupBy     []string
		percentiles []float64
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "percentile FILE.csv",
		Short: "Prints the percentiles of one column of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewStdoutLogger(os.Stderr, verbose)
			defer logger.Close()
			_, err := pipeline.Percentiles(cmd.Context(), args[0], column, groupBy, percentiles, os.Stdout, logger)
			return err
		},
	}
	cmd.Flags().StringVar(&column, "column", "Time", "numeric column to summarize")
	cmd.Flags().StringSliceVar(&groupBy, "group", nil, "columns to group rows by")
	cmd.Flags().Float64SliceVar(&percentiles, "p", stats.DefaultPercentiles, "percentiles to report")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report every skipped row")
	return cmd
}
