package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/config"
	"github.com/yourusername/xc-ratings/internal/database"
	"github.com/yourusername/xc-ratings/internal/datasource"
	appLogger "github.com/yourusername/xc-ratings/internal/logger"
	"github.com/yourusername/xc-ratings/internal/metrics"
	"github.com/yourusername/xc-ratings/internal/observation"
	"github.com/yourusername/xc-ratings/internal/repository"
	"github.com/yourusername/xc-ratings/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd, applyCmd, recommendationsCmd, scheduleCmd, importCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate cross-country course difficulty ratings",
	Long: `Infers course difficulty ratings from athletes who raced both a candidate course
and the anchor course, and stores advisory recommendations for operator review.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("calibrate %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads configuration, overlays secrets and applies flag overrides
func loadConfig(ctx context.Context, cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSecrets(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	applyParamFlags(cmd, &cfg.Calibration)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger = appLogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	return nil
}

func setupDependencies(ctx context.Context) error {
	metrics.InitRegistry()

	var err error
	db, err = database.Initialize(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

func teardown() {
	if db != nil {
		db.Close()
	}
}

// newAccessor reads observations from the configured source
func newAccessor() (*observation.Accessor, error) {
	source, err := datasource.NewPageSource(cfg.Source, repos.Observation, logger)
	if err != nil {
		return nil, err
	}
	return observation.NewAccessor(source, cfg.AccessorOptions(), logger), nil
}

func newOrchestrator() (*service.CalibrationOrchestrator, error) {
	accessor, err := newAccessor()
	if err != nil {
		return nil, err
	}
	return service.NewCalibrationOrchestrator(repos.Course, repos.Recommendation, repos.Run, accessor, logger), nil
}

func runConfig() service.RunConfig {
	return service.RunConfig{
		Params:        cfg.Calibration.Params(),
		Workers:       cfg.Calibration.Workers,
		CourseTimeout: cfg.Calibration.CourseTimeout,
	}
}
