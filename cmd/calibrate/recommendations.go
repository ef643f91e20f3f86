package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/report"
	"github.com/yourusername/xc-ratings/internal/repository"
)

var (
	listMethod        string
	listCourse        string
	listMinConfidence float64
	listLimit         int
	listJSON          bool
)

var recommendationsCmd = &cobra.Command{
	Use:     "recommendations",
	Aliases: []string{"recs"},
	Short:   "List stored recommendations ranked by discrepancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := repository.RecommendationFilter{
			Method:        models.CalibrationMethod(listMethod),
			MinConfidence: listMinConfidence,
			Limit:         listLimit,
		}
		if listCourse != "" {
			id, err := uuid.Parse(listCourse)
			if err != nil {
				return fmt.Errorf("invalid course id %q: %w", listCourse, err)
			}
			filter.CourseID = id
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := loadConfig(ctx, cmd); err != nil {
			return err
		}
		if err := setupDependencies(ctx); err != nil {
			return err
		}
		defer teardown()

		recs, err := repos.Recommendation.List(ctx, filter)
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}
		fmt.Print(report.GenerateRecommendationTable(recs))
		return nil
	},
}

func init() {
	recommendationsCmd.Flags().StringVar(&listMethod, "method", "", "Only this method: ratio, temporal_outlier or isolated")
	recommendationsCmd.Flags().StringVar(&listCourse, "course", "", "Only this course id")
	recommendationsCmd.Flags().Float64Var(&listMinConfidence, "min-confidence", 0, "Minimum confidence")
	recommendationsCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum rows")
	recommendationsCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
}
