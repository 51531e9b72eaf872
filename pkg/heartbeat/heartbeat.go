// Package heartbeat drives scheduled check-ins through the assistant
// pipeline.
package heartbeat

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/benhli40/Orion/pkg/config"
	"github.com/benhli40/Orion/pkg/logger"
)

// Prompt is what the schedule feeds into the pipeline on every beat.
const Prompt = "Give me a brief check-in: anything on my plate, plus one thing worth knowing right now."

// Handler receives the heartbeat prompt when the schedule fires.
type Handler func(ctx context.Context, prompt string)

// Runner evaluates a cron schedule once a minute and invokes the
// handler on due ticks.
type Runner struct {
	schedule string
	gron     *gronx.Gronx
	handle   Handler
}

func New(cfg config.HeartbeatConfig, handle Handler) (*Runner, error) {
	g := gronx.New()
	if !g.IsValid(cfg.Schedule) {
		return nil, fmt.Errorf("invalid heartbeat schedule %q", cfg.Schedule)
	}
	return &Runner{
		schedule: cfg.Schedule,
		gron:     g,
		handle:   handle,
	}, nil
}

// due reports whether the schedule fires at the given instant.
func (r *Runner) due(now time.Time) bool {
	ok, err := r.gron.IsDue(r.schedule, now)
	if err != nil {
		logger.WarnCF("heartbeat", "Schedule evaluation failed",
			map[string]interface{}{"error": err.Error()})
		return false
	}
	return ok
}

// Run blocks until the context is cancelled, checking the schedule at
// the top of every minute.
func (r *Runner) Run(ctx context.Context) {
	logger.InfoCF("heartbeat", "Heartbeat started",
		map[string]interface{}{"schedule": r.schedule})

	// Align the first check to the next minute boundary.
	now := time.Now()
	next := now.Truncate(time.Minute).Add(time.Minute)
	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	if r.due(time.Now()) {
		r.handle(ctx, Prompt)
	}
	for {
		select {
		case <-ctx.Done():
			logger.InfoC("heartbeat", "Heartbeat stopped")
			return
		case t := <-ticker.C:
			if r.due(t) {
				r.handle(ctx, Prompt)
			}
		}
	}
}
