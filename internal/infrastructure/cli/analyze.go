package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/watch"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/analytics"
	"github.com/spf13/cobra"
)

var (
	analyzeBoard string
	analyzeJSON  bool
	analyzeWatch bool
	analyzeSave  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute flow analytics for a board",
	Long: `Analyze fetches every item's status history, derives cycle times and
dwell intervals, and aggregates them into percentiles and a completion
forecast.

Flags:
  --board   Board to analyze (defaults to the configured board)
  --json    Output in JSON format
  --watch   Re-run whenever the workspace configuration changes
  --save    Persist the report under .flowmetrics/reports`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(analyzeBoard, services)
	if err != nil {
		return err
	}

	runOnce := func(ctx context.Context) error {
		report := services.Analytics.AnalyzeBoard(ctx, boardID)
		if analyzeSave {
			if err := services.Repo.SaveBoardReport(report); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
		}
		if analyzeJSON {
			return outputReportJSON(report)
		}
		return outputReportText(report)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !analyzeWatch {
		return runOnce(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx); err != nil {
		return err
	}

	cwd, _ := os.Getwd()
	watcher, err := watch.NewWorkspaceWatcher(cwd, time.Second, func(path string) {
		fmt.Printf("\nWorkspace changed (%s), re-analyzing...\n\n", path)
		if err := runOnce(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "analyze failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Println("\nWatching workspace for changes (Ctrl+C to stop)")
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func outputReportText(r *analytics.BoardReport) error {
	fmt.Println("Board Flow Report")
	fmt.Println("-----------------")
	fmt.Printf("Board:       %s\n", r.BoardID)
	fmt.Printf("Run:         %s\n", r.RunID)
	fmt.Printf("Generated:   %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Items:       %d\n", r.ItemCount())
	fmt.Printf("Completed:   %d (%.0f%%)\n", r.CompletedCount, r.CompletionRate()*100)
	if r.FailedCount > 0 {
		fmt.Printf("Unfetchable: %d\n", r.FailedCount)
	}

	fmt.Println("\nCycle Time Percentiles (days)")
	fmt.Println("-----------------------------")
	for _, p := range analytics.DefaultPercentiles {
		fmt.Printf("p%-3.0f %8.1f\n", p, r.Percentiles[analytics.PercentileKey(p)])
	}

	if r.Distribution != nil {
		fmt.Println("\nCompletion Forecast")
		fmt.Println("-------------------")
		for _, b := range r.Distribution.Buckets {
			marker := " "
			if b.Recommended {
				marker = "*"
			}
			fmt.Printf("%s %2d-%2d days  %5.1f%%  (%.0f%% of items finish by day %d)\n",
				marker, b.MinDays, b.MaxDays, b.Probability*100, b.Confidence*100, b.MaxDays)
		}
		if w := r.Distribution.Recommended; w != nil {
			fmt.Printf("\nNext item most likely done in %d-%d days (%.0f%% confidence)\n",
				w.MinDays, w.MaxDays, w.Confidence*100)
		}
	}

	if len(r.Items) > 0 {
		fmt.Println("\nItems")
		fmt.Println("-----")
		for _, item := range r.Items {
			switch {
			case item.FetchFailed:
				fmt.Printf("%-12s history unavailable\n", item.ItemKey)
			case item.IsCompleted():
				estimate := ""
				if item.CycleTime.IsEstimated {
					estimate = " (estimated from creation)"
				}
				fmt.Printf("%-12s %6.1f days%s\n", item.ItemKey, item.CycleTime.DurationDays, estimate)
			default:
				fmt.Printf("%-12s in progress\n", item.ItemKey)
			}
		}
	}

	return nil
}

func outputReportJSON(r *analytics.BoardReport) error {
	items := make([]map[string]interface{}, len(r.Items))
	for i, item := range r.Items {
		entry := map[string]interface{}{
			"key":          item.ItemKey,
			"completed":    item.IsCompleted(),
			"fetch_failed": item.FetchFailed,
		}
		if item.CycleTime != nil {
			entry["cycle_time_days"] = item.CycleTime.DurationDays
			entry["estimated"] = item.CycleTime.IsEstimated
			entry["provenance"] = string(item.CycleTime.Provenance)
		}
		items[i] = entry
	}

	output := map[string]interface{}{
		"run_id":          r.RunID,
		"board_id":        r.BoardID,
		"generated_at":    r.GeneratedAt.Format(time.RFC3339),
		"item_count":      r.ItemCount(),
		"completed_count": r.CompletedCount,
		"failed_count":    r.FailedCount,
		"completion_rate": r.CompletionRate(),
		"percentiles":     r.Percentiles,
		"items":           items,
	}
	if r.Distribution != nil {
		output["distribution"] = r.Distribution
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeBoard, "board", "", "Board to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output in JSON format")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "Re-run on workspace changes")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Persist the report to the workspace")
	RootCmd.AddCommand(analyzeCmd)
}
