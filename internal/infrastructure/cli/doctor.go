package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	doctorBoard string
	doctorJSON  bool
	doctorSave  bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Audit a board's history for data-quality problems",
	Long: `Doctor replays every item's status history and flags findings that
undermine the analytics: negative cycle times, illegal lifecycle
transitions, and forecast self-check failures.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(doctorBoard, services)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	audit, err := services.Audit.AuditBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if doctorSave {
		if err := services.Repo.SaveAuditReport(audit); err != nil {
			return fmt.Errorf("failed to save audit report: %w", err)
		}
	}

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(audit)
	}

	fmt.Println("Board Health Check")
	fmt.Println("------------------")
	fmt.Printf("Board:         %s\n", audit.BoardID)
	fmt.Printf("Items scanned: %d\n", audit.ItemsScanned)

	if audit.Clean() {
		fmt.Println("\nNo anomalies found.")
		return nil
	}

	fmt.Printf("\nAnomalies (%d)\n", len(audit.Anomalies))
	fmt.Println("-------------")
	for _, a := range audit.Anomalies {
		fmt.Printf("%-12s %-22s %s\n", a.ItemKey, a.Kind, a.Detail)
	}

	return nil
}

func init() {
	doctorCmd.Flags().StringVar(&doctorBoard, "board", "", "Board to audit")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorSave, "save", false, "Persist the audit report to the workspace")
	RootCmd.AddCommand(doctorCmd)
}
