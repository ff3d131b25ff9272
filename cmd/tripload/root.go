package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MasterOfBinary/tripload"
	"github.com/MasterOfBinary/tripload/logger"
	"github.com/MasterOfBinary/tripload/store"
)

const envPrefix = "TRIPLOAD"

// options holds everything that can be set by flag, environment or config
// file.
type options struct {
	url         string
	index       string
	batchSize   uint64
	stations    int
	logLevel    string
	logJSON     bool
	metricsAddr string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	rc := &cobra.Command{
		Use:   "tripload [flags] <trips.csv>",
		Short: "Load bike trips into Elasticsearch and report station activity.",
		Long: `Load a CSV file of bike trips into an Elasticsearch index and report
how many trips started at each station, in 2-hour windows.

The index is deleted if it exists and created again. Every option can also
be set with a TRIPLOAD_ environment variable (for example TRIPLOAD_BATCH_SIZE)
or in a TOML configuration file given with --config.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts, stdout, stderr)
		},
	}

	flags := rc.Flags()
	flags.StringP("config", "c", "", "Configuration file to read from.")
	flags.StringVar(&opts.url, "url", store.DefaultURL, "Elasticsearch URL.")
	flags.StringVar(&opts.index, "index", store.DefaultIndex, "Index to load the trips into.")
	flags.Uint64Var(&opts.batchSize, "batch-size", tripload.DefaultBatchSize, "Documents per bulk request.")
	flags.IntVar(&opts.stations, "stations", tripload.DefaultStations, "Number of stations in the report.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	flags.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON.")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while loading.")

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func run(ctx context.Context, file string, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(logger.Options{
		Out:   stderr,
		Level: opts.logLevel,
		JSON:  opts.logJSON,
	})
	if err != nil {
		return err
	}

	cfg := tripload.Config{
		File:      file,
		URL:       opts.url,
		Index:     opts.index,
		BatchSize: opts.batchSize,
		Stations:  opts.stations,
		Log:       &log,
	}

	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		srv, err := serveMetrics(opts.metricsAddr, reg, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		cfg.Registerer = reg
	}

	res, err := tripload.Run(ctx, cfg)
	if err != nil {
		return err
	}
	return tripload.WriteReport(stdout, res.Report)
}

// serveMetrics exposes reg on addr under /metrics until the server is shut
// down.
func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return srv, nil
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order.
//
// Environment variables are the flag names in upper case with dashes replaced
// by underscores, prefixed with TRIPLOAD_.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}

		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			// Flags set on the command line win.
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}
