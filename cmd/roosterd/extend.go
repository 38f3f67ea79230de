package main

import (
	"context"
	"time"

	"github.com/roosterd/roosterd/internal/orchestrator"
	"github.com/roosterd/roosterd/pkg/logger"
	"github.com/spf13/cobra"
)

var extendLoop bool

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend the schedule of every auto-scheduled team",
	Long: `Runs one extender pass: every team with auto scheduling enabled gets
its applied schedule topped up to today plus the configured horizon. With
--loop the pass repeats nightly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBootstrap()
		if err != nil {
			return err
		}
		defer b.close()

		ext := orchestrator.NewExtender(b.svc, b.cfg.Extender)

		if !extendLoop {
			_, err := ext.Tick(context.Background(), time.Now())
			return err
		}

		for {
			if _, err := ext.Tick(context.Background(), time.Now()); err != nil {
				logger.WithError(err).Msg("extender tick failed")
			}
			time.Sleep(untilNextTick(time.Now(), b.loc))
		}
	},
}

func init() {
	extendCmd.Flags().BoolVar(&extendLoop, "loop", false, "keep running, one pass per night")
}

// untilNextTick returns the wait until the next 02:00 local, a quiet hour
// well clear of the midnight date rollover.
func untilNextTick(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), 2, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}
