// Package synth writes synthetic dnscrypt-proxy query logs for fixtures and
// for trying out analyses without captured data.
package synth

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/kcz17/dnslatency/stats"
	"github.com/miekg/dns"
	"golang.org/x/exp/rand"
)

type Options struct {
	N    int
	Seed uint64
	// Latencies in milliseconds follow a normal distribution truncated to
	// [Min, Max].
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// FailureRate is the share of queries logged with a failing status.
	FailureRate float64
	Start       time.Time
	Hosts       []string
	Targets     []string
	// QueryTypes are drawn uniformly for the DnsType column.
	QueryTypes []uint16
}

func DefaultOptions() Options {
	return Options{
		N:           1000,
		Seed:        1,
		Mean:        40,
		StdDev:      25,
		Min:         1,
		Max:         math.Inf(1),
		FailureRate: 0.02,
		Start:       time.Date(2020, 7, 31, 22, 16, 0, 0, time.UTC),
		Hosts:       []string{"example.com.", "wikipedia.org.", "cloudflare.com.", "google.com."},
		Targets:     []string{"cloudflare", "quad9-dnscrypt-ip4-nofilter-pri", "scaleway-fr"},
		QueryTypes:  []uint16{dns.TypeA, dns.TypeAAAA},
	}
}

func (o Options) validate() error {
	if o.N < 0 {
		return fmt.Errorf("expected non-negative N; got %d", o.N)
	}
	if o.StdDev <= 0 || o.Min >= o.Max {
		return fmt.Errorf("expected positive stddev and min < max; got stddev = %v, min = %v, max = %v", o.StdDev, o.Min, o.Max)
	}
	if o.FailureRate < 0 || o.FailureRate > 1 {
		return fmt.Errorf("expected failure rate within [0, 1]; got %v", o.FailureRate)
	}
	if len(o.Hosts) == 0 || len(o.Targets) == 0 {
		return fmt.Errorf("expected at least one host and target")
	}
	for _, host := range o.Hosts {
		if _, ok := dns.IsDomainName(host); !ok {
			return fmt.Errorf("expected a domain name; got host %q", host)
		}
	}
	for _, qt := range o.QueryTypes {
		if _, ok := dns.TypeToString[qt]; !ok {
			return fmt.Errorf("unknown query type %d", qt)
		}
	}
	return nil
}

// WriteDNSCryptLog writes opts.N tab separated query log lines. The same
// options always produce the same log.
func WriteDNSCryptLog(w io.Writer, opts Options) error {
	if err := opts.validate(); err != nil {
		return fmt.Errorf("WriteDNSCryptLog(): %w", err)
	}
	latencies := stats.NewTruncatedNormal(opts.Min, opts.Max, opts.Mean, opts.StdDev, opts.Seed)
	rng := rand.New(rand.NewSource(opts.Seed + 1))

	queryTypes := opts.QueryTypes
	if len(queryTypes) == 0 {
		queryTypes = []uint16{dns.TypeA}
	}

	out := bufio.NewWriter(w)
	at := opts.Start
	for i := 0; i < opts.N; i++ {
		latency := latencies.Rand()
		status := "PASS"
		if rng.Float64() < opts.FailureRate {
			status = "SERVER_FAIL"
		}
		_, err := fmt.Fprintf(out, "%s\t127.0.0.1\t%s\t%s\t%s\t%sms\t%s\n",
			at.Format("2006-01-02 15:04:05"),
			dns.Fqdn(opts.Hosts[rng.Intn(len(opts.Hosts))]),
			dns.TypeToString[queryTypes[rng.Intn(len(queryTypes))]],
			status,
			strconv.FormatFloat(latency, 'f', 3, 64),
			opts.Targets[rng.Intn(len(opts.Targets))],
		)
		if err != nil {
			return err
		}
		at = at.Add(time.Duration(latency*float64(time.Millisecond)) + 100*time.Millisecond)
	}
	return out.Flush()
}
