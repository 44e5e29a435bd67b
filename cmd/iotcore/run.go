package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/api"
	"github.com/lixenwraith/iotcore/metrics"
	"github.com/lixenwraith/iotcore/platform"
	"github.com/lixenwraith/iotcore/store"
)

type runOptions struct {
	configPath string
	dataDir    string
	listen     string
	overrides  []string
	metrics    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the device core on this host",
		Long: "Load the configuration, restore component settings from the data directory " +
			"and run the main loop until interrupted. A reset requested over the API " +
			"starts the core over in the same process.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDevice(ctx, opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "iotcore.toml", "TOML configuration file; missing file means defaults")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "./data", "directory for credentials and persisted component config")
	cmd.Flags().StringVar(&opts.listen, "listen", api.DefaultAddress, "HTTP API listen address")
	cmd.Flags().StringArrayVarP(&opts.overrides, "set", "s", nil, "configuration override key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "serve Prometheus metrics on "+api.MetricsPath)
	return cmd
}

// runDevice runs the core until ctx ends, building a fresh System after
// every restart request.
func runDevice(ctx context.Context, opts runOptions, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	fileStore, err := store.NewFileStore(filepath.Join(opts.dataDir, "config"))
	if err != nil {
		return err
	}
	host, err := platform.NewHost(opts.dataDir, platform.WithStoreUsage(fileStore))
	if err != nil {
		return err
	}

	for {
		err := runOnce(ctx, cfg, host, fileStore, opts)
		switch {
		case errors.Is(err, iotcore.ErrRestart):
			fmt.Fprintln(stderr, "restarting")
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	}
}

func loadConfig(opts runOptions) (*iotcore.Config, error) {
	cfg, err := iotcore.NewConfigFromFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Version == "dev" {
		cfg.Version, cfg.Commit = version, commit
	}
	if len(opts.overrides) > 0 {
		if cfg, err = cfg.ApplyOverride(opts.overrides...); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runOnce(ctx context.Context, cfg *iotcore.Config, host *platform.Host, configStore iotcore.ConfigStore, opts runOptions) error {
	system, err := iotcore.New(cfg, host, configStore)
	if err != nil {
		return err
	}
	defer system.Close()

	serverOpts := []api.Option{api.WithAddress(opts.listen)}
	var components []iotcore.Component

	if opts.metrics {
		collector := metrics.NewCollector(system)
		registry := prometheus.NewRegistry()
		if err := registry.Register(collector); err != nil {
			return err
		}
		serverOpts = append(serverOpts, api.WithMetrics(registry))
		components = append(components, collector)
	}

	server := api.NewServer(system, serverOpts...)
	server.AddProvider(api.NewSystemAPI(system))
	defer server.Close()

	components = append(components, server, newBeacon(system))
	for _, c := range components {
		if err := system.AddComponent(c); err != nil {
			return err
		}
	}

	return system.Run(ctx)
}
