// netdiag is a command-line network diagnostic tool: reachability probing,
// HTTP health checks, TCP port scanning and TLS certificate inspection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/netdiag/internal/probe"
)

var (
	pingTimeout time.Duration
	httpTimeout time.Duration
	portTimeout time.Duration
	tlsTimeout  time.Duration
	verbose     bool

	version = "dev" // set during build
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "netdiag",
	Short:   "Network diagnostic probe tool",
	Version: version,
	Long: `netdiag runs network diagnostics against a host: multi-vantage-point
reachability probing, HTTP health checks with bounded redirects, concurrent
TCP port scanning with service classification, and TLS certificate
inspection. Results are printed as JSON.`,
	Example: `  # Full diagnostic report
  netdiag report example.com

  # Individual probes
  netdiag ping example.com
  netdiag http https://example.com
  netdiag ports example.com 22,80,443,8443
  netdiag ssl example.com`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.DurationVar(&pingTimeout, "ping-timeout", 5*time.Second, "Per-vantage-point probe budget")
	pf.DurationVar(&httpTimeout, "http-timeout", 10*time.Second, "HTTP check budget including redirects")
	pf.DurationVar(&portTimeout, "port-timeout", 3*time.Second, "Per-port connect budget")
	pf.DurationVar(&tlsTimeout, "tls-timeout", 10*time.Second, "TLS dial and handshake budget")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log probe activity to stderr")

	rootCmd.AddCommand(pingCmd, httpCmd, portsCmd, sslCmd, reportCmd)
}

func engine() *probe.Diagnostics {
	log := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}
	return probe.NewDiagnostics(log, probe.Timeouts{
		Ping: pingTimeout,
		HTTP: httpTimeout,
		Port: portTimeout,
		TLS:  tlsTimeout,
	})
}

func runCtx() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var pingCmd = &cobra.Command{
	Use:   "ping <host> [vantage points]",
	Short: "Probe host liveness from multiple vantage points",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runCtx()
		defer cancel()

		var vps []string
		if len(args) == 2 {
			vps = splitList(args[1])
		}
		out, err := engine().Ping(ctx, args[0], vps)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"host": args[0], "reachability": out})
	},
}

var httpCmd = &cobra.Command{
	Use:   "http <url>",
	Short: "Run an HTTP health check with bounded redirects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runCtx()
		defer cancel()

		out, err := engine().CheckHTTP(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports <host> [ports]",
	Short: "Scan TCP ports and classify the services behind them",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runCtx()
		defer cancel()

		var ports []int
		if len(args) == 2 {
			var err error
			if ports, err = parsePorts(args[1]); err != nil {
				return err
			}
		}
		out, err := engine().ScanPorts(ctx, args[0], ports)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var sslCmd = &cobra.Command{
	Use:   "ssl <domain>",
	Short: "Inspect the TLS certificate served by a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runCtx()
		defer cancel()

		out, err := engine().InspectSSL(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <host>",
	Short: "Run all probes against a host and print the combined report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runCtx()
		defer cancel()

		rep, err := engine().Report(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePorts(raw string) ([]int, error) {
	var out []int
	for _, p := range splitList(raw) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
