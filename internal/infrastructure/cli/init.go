package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	initURL   string
	initEmail string
	initBoard string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a flowmetrics workspace",
	Long: `Init creates the .flowmetrics directory and writes the initial
configuration. API tokens are read from the environment
(FLOWMETRICS_TRACKER_TOKEN or FLOWMETRICS_TRACKER_BEARER) and are never
written to disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		if err := repo.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}

		cfg := &config.Config{
			Tracker: config.TrackerConfig{BaseURL: initURL, Email: initEmail},
			Board:   config.BoardConfig{ID: initBoard},
		}
		if err := config.Save(cwd, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Initialized flowmetrics workspace in %s\n", storage.FlowDir)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "Tracker base URL")
	initCmd.Flags().StringVar(&initEmail, "email", "", "Tracker account email")
	initCmd.Flags().StringVar(&initBoard, "board", "", "Default board ID")
	RootCmd.AddCommand(initCmd)
}
