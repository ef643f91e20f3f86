package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/config"
	"github.com/yourusername/xc-ratings/internal/datasource"
	"github.com/yourusername/xc-ratings/internal/observation"
	"github.com/yourusername/xc-ratings/internal/service"
)

var importCourses []string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy results from the results API into the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(importCourses))
		for _, raw := range importCourses {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid course id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := loadConfig(ctx, cmd); err != nil {
			return err
		}
		if cfg.Source.HTTP.BaseURL == "" {
			return fmt.Errorf("source.http.base_url is required for import")
		}
		if err := setupDependencies(ctx); err != nil {
			return err
		}
		defer teardown()

		remoteCfg := cfg.Source
		remoteCfg.Type = config.SourceHTTP
		remote, err := datasource.NewPageSource(remoteCfg, nil, logger)
		if err != nil {
			return err
		}
		accessor := observation.NewAccessor(remote, cfg.AccessorOptions(), logger)

		svc := service.NewImportService(accessor, repos.Course, repos.Observation, logger)
		stats, err := svc.ImportCourses(ctx, ids)
		if stats != nil {
			fmt.Println(stats.String())
		}
		return err
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importCourses, "course", nil, "Course ids to import (default: every course)")
}
