package cmd

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/updater/internal/hyper"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "v0.0.1-dev"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updater",
		Short: "updater trains a demo model with per-coordinate update rules.",
		// Errors are logged by Report so they share the configured log format.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		versionCmd(),
		runCmd(),
	)

	return cmd
}

// Report logs the error a command returned. Configuration errors are fatal;
// anything else is logged at error level and left to the caller to exit.
func Report(logger *log.Logger, err error) {
	var cfgErr *hyper.ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.WithError(err).Fatal("invalid configuration")
		return
	}
	logger.WithError(err).Error("command failed")
}
