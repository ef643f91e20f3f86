package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/health"
	"github.com/yourusername/xc-ratings/internal/metrics"
	"github.com/yourusername/xc-ratings/internal/scheduler"
)

var scheduleTimeout time.Duration

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run calibration on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if err := loadConfig(ctx, cmd); err != nil {
			return err
		}
		if !cfg.Schedule.Enabled || cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule.enabled must be true and schedule.cron set")
		}
		if err := setupDependencies(ctx); err != nil {
			return err
		}
		defer teardown()

		orchestrator, err := newOrchestrator()
		if err != nil {
			return err
		}

		sched := scheduler.NewScheduler(logger)
		_, err = sched.Schedule("calibration", cfg.Schedule.Cron, scheduleTimeout, func(jobCtx context.Context) error {
			summary, err := orchestrator.Run(jobCtx, runConfig())
			if summary != nil {
				logger.WithFields(logrus.Fields{
					"run_id":          summary.RunID,
					"high_confidence": summary.Counts.HighConfidence,
					"needs_review":    summary.Counts.NeedsReview,
					"isolated":        summary.Counts.Isolated,
					"failed":          summary.Counts.Failed,
				}).Info("Scheduled calibration finished")
			}
			return err
		})
		if err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			srv := health.NewServer(health.Config{
				ServiceName: cfg.App.Name,
				Version:     Version,
				Port:        cfg.Metrics.Port,
				Path:        cfg.Metrics.Path,
				Logger:      logger,
				DB:          db,
				Scheduler:   sched,
				Metrics:     metrics.Handler(),
			})
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.SetReady(false)
			srv.SetReady(true)
		}

		if err := sched.Start(); err != nil {
			return err
		}
		logger.WithField("next_run", sched.GetNextRun()).Info("Calibration scheduler running")

		<-ctx.Done()
		logger.Info("Shutdown signal received")
		return sched.Stop()
	},
}

func init() {
	addParamFlags(scheduleCmd)
	scheduleCmd.Flags().DurationVar(&scheduleTimeout, "run-timeout", 2*time.Hour, "Time limit for one scheduled run")
}
