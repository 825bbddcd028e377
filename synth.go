package main

import (
	"bufio"
	"os"

	"github.com/apex/log"
	"github.com/kcz17/dnslatency/internal/synth"
	"github.com/spf13/cobra"
)

func synthSubcommand() *cobra.Command {
	opts := synth.DefaultOptions()
	var out string
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Writes a synthetic dnscrypt-proxy query log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := os.Stdout
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			buffered := bufio.NewWriter(w)
			if err := synth.WriteDNSCryptLog(buffered, opts); err != nil {
				return err
			}
			if err := buffered.Flush(); err != nil {
				return err
			}
			if out != "-" {
				log.Infof("wrote %d entries to %s", opts.N, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().IntVarP(&opts.N, "n", "n", opts.N, "number of entries")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().Float64Var(&opts.Mean, "mean", opts.Mean, "mean latency in milliseconds")
	cmd.Flags().Float64Var(&opts.StdDev, "stddev", opts.StdDev, "latency standard deviation in milliseconds")
	cmd.Flags().Float64Var(&opts.FailureRate, "failures", opts.FailureRate, "share of failed queries")
	return cmd
}
