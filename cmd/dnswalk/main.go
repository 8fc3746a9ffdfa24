// SPDX-License-Identifier: GPL-3.0-or-later

// Command dnswalk resolves a domain name iteratively, starting from a
// root server, and prints its IPv4 address.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bassosimone/dnswalk"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/semihalev/zlog/v2"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath     string
		logLevel       string
		maxHops        int
		permissiveGlue bool
		port           uint16
		root           string
		stats          bool
		timeout        time.Duration
	)

	cmd := &cobra.Command{
		Use:          "dnswalk [flags] DOMAIN",
		Short:        "Resolve a domain iteratively starting from a root server",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := dnswalk.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = dnswalk.LoadConfig(configPath); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("root") {
				cfg.RootServer = root
			}
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("timeout") {
				cfg.Timeout.Duration = timeout
			}
			if flags.Changed("max-hops") {
				cfg.MaxHops = maxHops
			}
			if flags.Changed("permissive-glue") {
				cfg.StrictGlue = !permissiveGlue
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			if err := setupLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			resolver, err := cfg.NewResolver(reg)
			if err != nil {
				return err
			}

			addr, err := resolver.Resolve(cmd.Context(), args[0], dnswalk.TypeA)
			if err != nil {
				zlog.Error("Resolve failed", "name", args[0], "error", err.Error())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			if stats {
				if err := printStats(cmd.OutOrStdout(), reg); err != nil {
					return err
				}
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&root, "root", dnswalk.DefaultRootServer.String(), "root server IPv4 address")
	flags.Uint16Var(&port, "port", 53, "nameserver port")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "per-query timeout")
	flags.IntVar(&maxHops, "max-hops", dnswalk.DefaultMaxHops, "maximum number of queries")
	flags.BoolVar(&permissiveGlue, "permissive-glue", false, "accept glue not matching a referred nameserver")
	flags.StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")
	flags.BoolVar(&stats, "stats", false, "print query statistics")
	return cmd
}

// setupLogging sends logs to w, keeping stdout for the resolved address.
func setupLogging(w io.Writer, level string) error {
	logger := zlog.NewStructured()
	logger.SetWriter(w)
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(zlog.LevelDebug)
	case "info", "":
		logger.SetLevel(zlog.LevelInfo)
	case "warn":
		logger.SetLevel(zlog.LevelWarn)
	case "error":
		logger.SetLevel(zlog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	zlog.SetDefault(logger)
	return nil
}

// printStats writes every counter gathered from g, one per line.
func printStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %v\n", mf.GetName(), formatLabels(m.GetLabel()), m.GetCounter().GetValue())
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for _, lp := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
