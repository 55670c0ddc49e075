package cli

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/config"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/encoder"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/logging"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/monitoring"
	"github.com/GriffinCanCode/AgentOS/scriptenc/internal/script"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// environment is built once per invocation from LOG_*, SANDBOX_* and METRICS_* variables
type environment struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	metrics  *monitoring.Metrics
}

var env environment

var rootCmd = &cobra.Command{
	Use:           "scriptenc",
	Short:         "Encode user scripts into injectable page payloads",
	Long:          "Turns user scripts into payloads that survive backtick framing, carry only their granted capabilities,\nrun at their declared lifecycle point and await their declared modules.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Logging.LoggerConfig())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		env = environment{cfg: cfg, logger: logger}
		if cfg.Metrics.Enabled {
			env.registry = prometheus.NewRegistry()
			env.metrics = monitoring.NewMetrics(env.registry)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer env.logger.Sync()
		if env.registry == nil {
			return nil
		}
		return dumpMetrics(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newEncoder() *encoder.Encoder {
	return encoder.New(encoder.WithLogger(env.logger), encoder.WithMetrics(env.metrics))
}

// loadScripts expands every pattern and loads the matches in argument order
func loadScripts(patterns []string) ([]*script.Script, error) {
	var scripts []*script.Script
	for _, pattern := range patterns {
		found, err := script.LoadGlob(pattern)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, found...)
	}
	return scripts, nil
}

// dumpMetrics writes the registry in text exposition format to stderr
func dumpMetrics(cmd *cobra.Command) error {
	families, err := env.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return err
		}
	}
	return nil
}
