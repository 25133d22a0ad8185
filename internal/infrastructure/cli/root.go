package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "flowmetrics",
	Version: Version,
	Short:   "Flow analytics over issue-tracker status history",
	Long: `Flowmetrics turns a board's status-change history into flow analytics.
It answers:
1. How long does work actually take? (cycle time)
2. Where does work wait? (status dwell intervals)
3. When will the next item be done? (percentiles and completion forecasts)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

// buildServices wires the app services for the current directory.
func buildServices() (*wiring.AppServices, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	return wiring.BuildAppServices(cwd)
}

// resolveBoard prefers the flag value over the configured default board.
func resolveBoard(flagValue string, services *wiring.AppServices) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if services.Config.Board.ID != "" {
		return services.Config.Board.ID, nil
	}
	return "", fmt.Errorf("no board configured (set board.id in config or pass --board)")
}
