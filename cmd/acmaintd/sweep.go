package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/store"
)

// sweepCmd stores the Overdue status that reads already derive.
var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Mark scheduled records past their due date as Overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		gormDB, err := db.Open(&cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeDB(gormDB, logger)

		loc := cfg.Server.Location
		s := store.NewGormStore(gormDB, store.WithClock(func() time.Time { return time.Now().In(loc) }), store.WithLogger(logger))
		n, err := s.SweepOverdue(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("overdue sweep finished", zap.Int64("updated", n))
		return nil
	},
}
