package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/analytics"
	"github.com/spf13/cobra"
)

var (
	forecastBoard string
	forecastJSON  bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Predict completion time for the next item on a board",
	Long: `Forecast samples the board's completed cycle times and reports the
probability distribution over completion windows, including the
recommended answer to "when will the next item be done?".`,
	RunE: runForecast,
}

func runForecast(cmd *cobra.Command, args []string) error {
	services, err := buildServices()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(forecastBoard, services)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report := services.Analytics.AnalyzeBoard(ctx, boardID)

	if forecastJSON {
		return outputForecastJSON(report)
	}
	return outputForecastText(report)
}

func outputForecastText(r *analytics.BoardReport) error {
	fmt.Println("Completion Forecast")
	fmt.Println("-------------------")
	fmt.Printf("Board:     %s\n", r.BoardID)
	fmt.Printf("Sample:    %d completed items\n", r.CompletedCount)

	if r.Distribution == nil {
		fmt.Println("\nUnable to forecast: no completed items yet.")
		fmt.Println("Finish some work to enable predictions.")
		return nil
	}

	fmt.Println("\nProbability by Window")
	fmt.Println("---------------------")
	for _, b := range r.Distribution.Buckets {
		marker := " "
		if b.Recommended {
			marker = "*"
		}
		fmt.Printf("%s %2d-%2d days  %5.1f%%  cumulative %.0f%%\n",
			marker, b.MinDays, b.MaxDays, b.Probability*100, b.Confidence*100)
	}

	if w := r.Distribution.Recommended; w != nil {
		fmt.Printf("\nNext item most likely done in %d-%d days (%.0f%% confidence)\n",
			w.MinDays, w.MaxDays, w.Confidence*100)
	}

	return nil
}

func outputForecastJSON(r *analytics.BoardReport) error {
	output := map[string]interface{}{
		"board_id":     r.BoardID,
		"sample_size":  r.CompletedCount,
		"percentiles":  r.Percentiles,
		"distribution": r.Distribution,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func init() {
	forecastCmd.Flags().StringVar(&forecastBoard, "board", "", "Board to forecast")
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(forecastCmd)
}
