package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"script-analysis-backend/internal/database"
	"script-analysis-backend/internal/logging"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Reconciler re-derives project rollups from owned script records on a cron
// schedule. It closes the window left open when a crash lands between a
// script save and the follow-up project update.
type Reconciler struct {
	store  *database.Store
	expr   string
	logger *logging.Logger
}

func NewReconciler(store *database.Store, cronExpr string, logger *logging.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		expr:   cronExpr,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled, firing one reconcile pass per schedule
// tick. An empty or unparseable expression disables the loop.
func (r *Reconciler) Run(ctx context.Context) {
	if r.expr == "" {
		r.logger.Infow("rollup reconciler disabled: no schedule configured")
		return
	}
	schedule, err := cronParser.Parse(r.expr)
	if err != nil {
		r.logger.Errorw("rollup reconciler disabled: bad schedule",
			"cron", r.expr,
			"error", err)
		return
	}

	r.logger.Infow("rollup reconciler started", "cron", r.expr)

	timer := time.NewTimer(untilNext(schedule))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Infow("rollup reconciler stopped")
			return
		case <-timer.C:
			r.ReconcileOnce()
			timer.Reset(untilNext(schedule))
		}
	}
}

// ReconcileOnce runs a single reconcile pass immediately.
func (r *Reconciler) ReconcileOnce() {
	updated, err := r.store.ReconcileProjectRollups()
	if err != nil {
		r.logger.Errorw("rollup reconcile pass failed", "error", err)
		return
	}
	if updated > 0 {
		r.logger.Infow("rollup reconcile pass finished", "projects_updated", updated)
	}
}

// untilNext returns the duration until the schedule's next fire time, floored
// at a second so a pass that finishes within the fire minute cannot spin.
func untilNext(schedule cron.Schedule) time.Duration {
	d := time.Until(schedule.Next(time.Now()))
	if d < time.Second {
		return time.Second
	}
	return d
}
