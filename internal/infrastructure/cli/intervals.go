package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/flow"
	"github.com/spf13/cobra"
)

var (
	intervalsBoard string
	intervalsJSON  bool
)

var intervalsCmd = &cobra.Command{
	Use:   "intervals <item-key>",
	Short: "Show how long an item spent in each status",
	Args:  cobra.ExactArgs(1),
	RunE:  runIntervals,
}

func runIntervals(cmd *cobra.Command, args []string) error {
	itemKey := args[0]

	services, err := buildServices()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(intervalsBoard, services)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	run, err := services.Analytics.StartRun(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	defer run.Close()

	items, err := services.Analytics.ListItems(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to list board items: %w", err)
	}

	for _, item := range items {
		if item.Key != itemKey {
			continue
		}
		intervals := run.Intervals(ctx, item)
		if intervalsJSON {
			return outputIntervalsJSON(itemKey, intervals)
		}
		return outputIntervalsText(itemKey, intervals)
	}

	return fmt.Errorf("item %s not found on board %s", itemKey, boardID)
}

func outputIntervalsText(itemKey string, intervals []flow.StatusInterval) error {
	fmt.Printf("Status Intervals: %s\n", itemKey)
	fmt.Println("----------------------------")

	if len(intervals) == 0 {
		fmt.Println("No tracked status history.")
		return nil
	}

	for _, iv := range intervals {
		exit := "now"
		if !iv.IsOpen() {
			exit = iv.ExitDate.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-16s %s -> %-16s %6.1f days\n",
			iv.StateLabel, iv.EntryDate.Format("2006-01-02 15:04"), exit, iv.DaysSpent)
	}

	return nil
}

func outputIntervalsJSON(itemKey string, intervals []flow.StatusInterval) error {
	entries := make([]map[string]interface{}, len(intervals))
	for i, iv := range intervals {
		entry := map[string]interface{}{
			"state_id":    iv.StateID,
			"state_label": iv.StateLabel,
			"entry_date":  iv.EntryDate.Format(time.RFC3339),
			"hours_spent": iv.HoursSpent,
			"days_spent":  iv.DaysSpent,
			"open":        iv.IsOpen(),
		}
		if !iv.IsOpen() {
			entry["exit_date"] = iv.ExitDate.Format(time.RFC3339)
		}
		entries[i] = entry
	}

	output := map[string]interface{}{
		"item_key":  itemKey,
		"intervals": entries,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	intervalsCmd.Flags().StringVar(&intervalsBoard, "board", "", "Board the item belongs to")
	intervalsCmd.Flags().BoolVar(&intervalsJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(intervalsCmd)
}
