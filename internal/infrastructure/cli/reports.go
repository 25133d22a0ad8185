package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports [run-id]",
	Short: "List or show saved board reports",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)

		if len(args) == 0 {
			runIDs, err := repo.ListBoardReports()
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}
			if len(runIDs) == 0 {
				fmt.Println("No saved reports. Run `flowmetrics analyze --save` first.")
				return nil
			}
			for _, id := range runIDs {
				fmt.Println(id)
			}
			return nil
		}

		report, err := repo.LoadBoardReport(args[0])
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}
		return outputReportText(report)
	},
}

func init() {
	RootCmd.AddCommand(reportsCmd)
}
