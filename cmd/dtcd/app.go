package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"github.com/fortressi/coordinate"
)

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	var (
		configFile string
		listen     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "dtcd",
		Short:         "dtcd applies create/delete writes across replica groups with saga-style rollback",
		SilenceErrors: true,
		Example: `
  # Serve the cluster defined in ./dtcd.yaml
  dtcd

  # Explicit config file and listen address
  dtcd --config /etc/dtcd/cluster.yaml --listen :8460
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			logger := baseLogger
			if level, ok := pslog.ParseLevel(logLevel); ok {
				logger = logger.LogLevel(level)
			}

			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (default dtcd.yaml in . or /etc/dtcd)")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	return cmd
}

// loadConfig reads the cluster configuration: tunables plus the group
// membership source, a map of group IDs to node IDs and base addresses.
func loadConfig(path string) (coordinate.Config, error) {
	cfg := coordinate.DefaultConfig()

	v := viper.New()
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("max_attempts", cfg.MaxAttempts)
	v.SetDefault("base_delay", cfg.BaseDelay)
	v.SetDefault("backoff_multiplier", cfg.BackoffMultiplier)
	v.SetDefault("max_delay", cfg.MaxDelay)
	v.SetDefault("node_timeout", cfg.NodeTimeout)
	v.SetDefault("delete_policy", "recreate")
	v.SetEnvPrefix("DTCD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dtcd")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dtcd")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.Listen = v.GetString("listen")
	cfg.MaxAttempts = v.GetInt("max_attempts")
	cfg.BaseDelay = v.GetDuration("base_delay")
	cfg.BackoffMultiplier = v.GetFloat64("backoff_multiplier")
	cfg.MaxDelay = v.GetDuration("max_delay")
	cfg.NodeTimeout = v.GetDuration("node_timeout")

	switch policy := v.GetString("delete_policy"); policy {
	case "recreate":
		cfg.DeletePolicy = coordinate.DeleteRecreate
	case "none":
		cfg.DeletePolicy = coordinate.DeleteNoCompensate
	default:
		return cfg, fmt.Errorf("unknown delete_policy %q (want recreate or none)", policy)
	}

	cfg.Groups = make(map[coordinate.GroupID]map[coordinate.NodeID]string)
	for gid := range v.GetStringMap("groups") {
		nodes := v.GetStringMapString("groups." + gid)
		group := make(map[coordinate.NodeID]string, len(nodes))
		for nid, addr := range nodes {
			group[coordinate.NodeID(nid)] = addr
		}
		cfg.Groups[coordinate.GroupID(gid)] = group
	}

	return cfg, nil
}

func run(ctx context.Context, cfg coordinate.Config, logger pslog.Logger) error {
	membership := coordinate.NewStaticMembership(cfg.Groups)
	registry := coordinate.NewClientRegistry()
	for gid := range cfg.Groups {
		group, err := membership.Lookup(gid)
		if err != nil {
			return err
		}
		registry.RegisterGroup(group, cfg.NodeTimeout)
		logger.Info("group registered", "group", string(gid), "nodes", group.Len())
	}

	coord := coordinate.New(membership, registry,
		coordinate.WithRetryPolicy(cfg.RetryPolicy()),
		coordinate.WithDeletePolicy(cfg.DeletePolicy),
		coordinate.WithLogger(logger),
		coordinate.WithMetrics(coordinate.NewMetrics(prometheus.DefaultRegisterer)),
	)

	return coordinate.NewServer(coord, logger).ListenAndServe(ctx, cfg.Listen)
}
