package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/roosterd/roosterd/internal/config"
	"github.com/roosterd/roosterd/internal/metrics"
	apperrors "github.com/roosterd/roosterd/pkg/errors"
	"github.com/roosterd/roosterd/pkg/logger"
	"github.com/roosterd/roosterd/pkg/model"
	"github.com/roosterd/roosterd/pkg/scheduler/window"
)

// Extender is the nightly horizon maintainer: every tick it tops every
// auto-scheduled team's applied schedule up to today plus the configured
// horizon.
type Extender struct {
	svc *Service
	cfg config.ExtenderConfig
	log *logger.OrchestratorLogger
}

// NewExtender creates the extender over the orchestration service.
func NewExtender(svc *Service, cfg config.ExtenderConfig) *Extender {
	return &Extender{
		svc: svc,
		cfg: cfg,
		log: logger.NewOrchestratorLogger(),
	}
}

// TickStats summarizes one extender pass.
type TickStats struct {
	Teams    int `json:"teams"`
	Extended int `json:"extended"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Tick extends every auto-scheduled team once. Retryable failures on one
// team never abort the pass; the team is picked up again next tick.
func (e *Extender) Tick(ctx context.Context, today time.Time) (TickStats, error) {
	started := time.Now()

	teams, err := e.svc.teams.ListAutoScheduled(ctx)
	if err != nil {
		metrics.RecordExtenderTick(false)
		return TickStats{}, err
	}

	stats := TickStats{Teams: len(teams)}
	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *model.Team)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for team := range jobs {
				extended, err := e.extendTeam(ctx, team, today)
				mu.Lock()
				switch {
				case err != nil:
					stats.Failed++
				case extended:
					stats.Extended++
				default:
					stats.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, team := range teams {
		jobs <- team
	}
	close(jobs)
	wg.Wait()

	metrics.RecordExtenderTick(stats.Failed == 0)
	e.log.ExtenderTick(stats.Teams, stats.Extended, stats.Failed, time.Since(started))
	return stats, nil
}

// extendTeam extends one team's applied schedule to the target horizon.
// Already-covered teams are skipped; the run starts on the first civil day
// not yet fully planned so earlier assignments stay untouched.
func (e *Extender) extendTeam(ctx context.Context, team *model.Team, today time.Time) (bool, error) {
	latest, err := e.svc.shifts.LatestAppliedEnd(ctx, team.ID)
	if err != nil {
		return false, err
	}

	start := model.CivilDate(today, e.svc.loc)
	if latest.After(today) {
		start = window.NextPlanDate(latest, e.svc.loc)
	}

	months := e.cfg.HorizonMonths
	if months < 1 {
		months = 6
	}
	target := model.CivilDate(today, e.svc.loc).AddDate(0, months, 0)

	metrics.SetExtenderLag(team.ID.String(), target.Sub(start).Hours()/24)

	if start.After(target) {
		return false, nil
	}

	_, err = e.svc.CreateRun(ctx, CreateRunInput{
		TeamID:       team.ID,
		HorizonStart: start,
		HorizonEnd:   target,
		Mode:         model.ModeApply,
	})
	if err != nil {
		if apperrors.Retryable(err) {
			logger.Warn().
				Str("team_id", team.ID.String()).
				Err(err).
				Msg("extension deferred to next tick")
		} else {
			logger.WithError(err).
				Str("team_id", team.ID.String()).
				Msg("extension failed")
		}
		return false, err
	}
	return true, nil
}
