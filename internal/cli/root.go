// Package cli implements astroctl, which computes charts from the command line
// without a database.
package cli

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/smallbiznis/astrolabe/internal/chart/service"
	"github.com/smallbiznis/astrolabe/internal/clock"
	"github.com/smallbiznis/astrolabe/internal/config"
	"github.com/smallbiznis/astrolabe/internal/engine"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/smallbiznis/astrolabe/internal/engine/remote"
	obslogger "github.com/smallbiznis/astrolabe/internal/observability/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EngineEndpoint string
	EngineTimeout  time.Duration
	Format         string // "json" | "text"
	Verbose        bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Deps overrides the collaborators astroctl builds from its flags.
type Deps struct {
	Clock   clock.Clock
	Factory enginedomain.Factory
}

func (d Deps) clk() clock.Clock {
	if d.Clock == nil {
		return clock.NewSystemClock()
	}
	return d.Clock
}

// NewRootCommand creates the astroctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(Deps{})
}

func newRootCommand(deps Deps) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "astroctl",
		Short: "Compute natal charts and horoscopes",
		Long:  "astroctl computes natal charts, horoscopes and calendar months against the calculation engine sidecar.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EngineEndpoint, "engine-endpoint", "", "calculation engine sidecar URL (empty uses the degraded engine)")
	cmd.PersistentFlags().DurationVar(&opts.EngineTimeout, "engine-timeout", 30*time.Second, "calculation engine request timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log engine activity to stderr")

	cmd.AddCommand(newChartCommand(opts, deps))
	cmd.AddCommand(newHoroscopeCommand(opts, deps))
	cmd.AddCommand(newMonthDaysCommand(opts))

	return cmd
}

func (o *RootOptions) logger(w io.Writer) *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	log, err := obslogger.Build(obslogger.Config{
		ServiceName:     "astroctl",
		Level:           "debug",
		Format:          "console",
		Output:          zapcore.AddSync(w),
		DisableSampling: true,
	})
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// service builds a chart service that never persists.
func (o *RootOptions) service(deps Deps, log *zap.Logger) *service.Service {
	factory := deps.Factory
	mode := config.EngineModeAuto
	if factory == nil {
		if o.EngineEndpoint == "" {
			mode = config.EngineModeDegraded
		}
		factory = remote.NewFactory(remote.Config{Endpoint: o.EngineEndpoint, Timeout: o.EngineTimeout})
	}

	engines := engine.New(engine.Options{
		Factory: factory,
		Mode:    mode,
		Clock:   deps.clk(),
		Log:     log,
	})

	cfg := config.Config{Engine: config.EngineConfig{RetryHoroscope: true}}
	return service.New(service.ServiceParam{
		Config:  cfg,
		Log:     log,
		Engines: engines,
		Policy:  config.StaticComputePolicy(config.DefaultComputePolicy(cfg)),
	})
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
