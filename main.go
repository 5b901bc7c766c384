// Command ripd runs a single RIP router instance, reading its
// configuration from the file named on the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var opt struct {
	Help bool
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()

	if pflag.NArg() != 1 || opt.Help {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <config-file>\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(2)
		}
		os.Exit(1)
	}

	logger := configureLogging()

	f, err := os.Open(pflag.Arg(0))
	if err != nil {
		logger.Fatal().Err(err).Msg("open configuration file")
	}
	cfg, err := LoadConfig(f)
	f.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("parse configuration file")
	}

	metric := NewMetrics()
	if addr, ok := os.LookupEnv("RIPD_METRICS_ADDR"); ok {
		go func() {
			if err := metric.Serve(context.Background(), addr); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	d, err := NewDaemon(cfg, DaemonOptions{Logger: &logger, Metric: metric})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialize daemon")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("run daemon")
	}
}

// configureLogging builds the console logger used for the lifetime of the
// process. RIPD_LOG_LEVEL overrides the default info level; an invalid or
// absent value is ignored.
func configureLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if s, ok := os.LookupEnv("RIPD_LOG_LEVEL"); ok {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
