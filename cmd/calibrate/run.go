package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/report"
)

var (
	reportFormat string
	reportOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one calibration batch against the anchor course",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if err := loadConfig(ctx, cmd); err != nil {
			return err
		}
		if err := setupDependencies(ctx); err != nil {
			return err
		}
		defer teardown()

		orchestrator, err := newOrchestrator()
		if err != nil {
			return err
		}

		summary, err := orchestrator.Run(ctx, runConfig())
		if summary == nil {
			return err
		}
		if err != nil {
			logger.WithError(err).Warn("Run finished with a persistence error")
		}

		switch reportFormat {
		case "csv":
			if reportOutput != "" {
				return report.GenerateCSVExport(summary, reportOutput)
			}
			return report.WriteCSV(os.Stdout, summary)
		case "json":
			if reportOutput != "" {
				return report.GenerateJSONExport(summary, reportOutput)
			}
			return report.WriteJSON(os.Stdout, summary)
		case "console":
			fmt.Print(report.GenerateConsoleReport(summary))
			return nil
		default:
			return fmt.Errorf("unknown report format: %s", reportFormat)
		}
	},
}

func init() {
	addParamFlags(runCmd)
	runCmd.Flags().StringVar(&reportFormat, "format", "console", "Report format: console, csv or json")
	runCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the csv or json report to this file")
}
