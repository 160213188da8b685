package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/config"
	"github.com/sells-group/parcel-finder/internal/parcel"
	"github.com/sells-group/parcel-finder/internal/upstream"
)

var (
	cfg        *config.Config
	configPath string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "parcel-finder <ville> <contenance_cible>",
	Short: "Find cadastral parcels close to a target surface",
	Long: "Resolves a French municipality, scans its cadastral parcels for surfaces within a tolerance of the target, " +
		"then looks up the building registry for each match and prints the ones with a known address.",
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return eris.Wrap(err, "load config")
		}

		flags := cmd.Flags()
		if flags.Changed("verbosity") {
			if err := c.Log.ApplyVerbosity(verbosity); err != nil {
				return err
			}
		}
		if flags.Changed("format") {
			c.Output.Format = outputFormat
		}
		if flags.Changed("reverse") {
			c.Reverse.Enabled = reverseFallback
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	RunE: runSearch,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	f.IntVarP(&verbosity, "verbosity", "v", -1,
		"log verbosity from 0 (fatal only) to 5 (debug, development logger); unset keeps log.level (warn unless configured)")
}

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitNotFound    = 2
	exitUpstream    = 3
	exitInterrupted = 130
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	code := exitCode(err)
	if ctx.Err() != nil {
		code = exitInterrupted
	}
	reportError(err, code)
	return code
}

// exitCode classifies err. Cancellation wins over the upstream check since a
// cancelled request surfaces as a transport error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, parcel.ErrCityNotFound):
		return exitNotFound
	case upstream.IsUpstream(err):
		return exitUpstream
	default:
		return exitFailure
	}
}

func reportError(err error, code int) {
	if cfg == nil {
		// Failed before the logger existed: usage or configuration.
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	switch code {
	case exitNotFound:
		// Already logged by the search.
	case exitInterrupted:
		zap.L().Warn("interrupted")
	default:
		zap.L().Error("parcel-finder failed", zap.Error(err), zap.Int("exit_code", code))
		zap.L().Debug("error trace", zap.String("trace", eris.ToString(err, true)))
	}
	_ = zap.L().Sync()
}
