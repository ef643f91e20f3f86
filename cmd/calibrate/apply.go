package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/service"
)

var (
	applyBy     string
	applyReason string
	applyForce  bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <recommendation-id>",
	Short: "Apply a recommendation to its course rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid recommendation id %q: %w", args[0], err)
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

		operator := applyBy
		if operator == "" {
			operator = cfg.App.Operator
		}

		svc := service.NewApplyService(db, repos.Course, repos.Recommendation, repos.RatingChange, logger)
		change, err := svc.Apply(ctx, service.ApplyRequest{
			RecommendationID: id,
			AppliedBy:        operator,
			Reason:           applyReason,
			Force:            applyForce,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Course %s rating %.6f -> %.6f (change %s)\n", change.CourseID, change.OldRating, change.NewRating, change.ID)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyBy, "by", "", "Operator applying the change (defaults to app.operator)")
	applyCmd.Flags().StringVar(&applyReason, "reason", "", "Reason recorded in the audit trail")
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "Apply even if the course rating changed since the run")
}
