package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/roosterd/roosterd/internal/config"
	"github.com/roosterd/roosterd/internal/database"
	"github.com/roosterd/roosterd/internal/orchestrator"
	"github.com/roosterd/roosterd/internal/repository"
	"github.com/roosterd/roosterd/pkg/logger"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roosterd",
	Short: "On-call shift orchestrator",
	Long: `roosterd plans the on-call rotations of engineering teams: the
business-hours incidents and standby products and the evening/weekend
waakdienst product, with fairness-based selection and leave handling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.AddCommand(serveCmd, runCmd, extendCmd)
}

// initEnv loads .env when present and initializes the logger. Environment
// variables already set win over the file.
func initEnv() {
	_ = godotenv.Load()
	logger.Init(logger.Config{
		Level:      getenvDefault("APP_LOG_LEVEL", "info"),
		Format:     getenvDefault("APP_LOG_FORMAT", "console"),
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
}

// bootstrap wires the service stack shared by every subcommand.
type bootstrap struct {
	cfg *config.Config
	db  *database.DB
	svc *orchestrator.Service
	loc *time.Location
}

func newBootstrap() (*bootstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := window.Zone()
	if err != nil {
		return nil, err
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	svc := orchestrator.New(
		cfg.Orchestrator,
		loc,
		repository.NewTeamRepository(db),
		repository.NewEmployeeRepository(db),
		repository.NewLeaveRepository(db),
		repository.NewShiftRepository(db),
		repository.NewRunRepository(db),
	)

	return &bootstrap{cfg: cfg, db: db, svc: svc, loc: loc}, nil
}

func (b *bootstrap) close() {
	if err := b.db.Close(); err != nil {
		logger.WithError(err).Msg("closing database")
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
