package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/boxfleet/boxfleet/internal/compute"
	"github.com/boxfleet/boxfleet/internal/lifecycle"
	"github.com/boxfleet/boxfleet/internal/model"
)

// Reaper terminates boxes that have outlived their TTL. Sweeps cover every
// owner; per-box failures are logged and skipped so one stuck instance never
// blocks the rest.
type Reaper struct {
	provider  compute.Provider
	directory *Directory
	drain     *lifecycle.DrainManager

	now func() time.Time
}

func NewReaper(provider compute.Provider, directory *Directory, drain *lifecycle.DrainManager) *Reaper {
	return &Reaper{
		provider:  provider,
		directory: directory,
		drain:     drain,
		now:       time.Now,
	}
}

// Sweep terminates every expired box and returns the reaped set. A box with
// ttl <= 0 or an unreadable created-at stamp is expired immediately.
func (r *Reaper) Sweep(ctx context.Context) ([]model.Box, error) {
	release := r.drain.TrackSweep()
	defer release()

	logger := slog.Default().With("component", "reaper")

	boxes, err := r.directory.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	reaped := make([]model.Box, 0)
	for _, b := range boxes {
		if !expired(b, now) {
			continue
		}
		logger.Info("reaping expired box",
			"instance_id", b.InstanceID, "user", b.User, "name", b.Name,
			"age", b.AgeAt(now), "ttl", b.TTL)
		if err := r.provider.TerminateBox(ctx, b.InstanceID); err != nil {
			logger.Warn("failed to reap box", "instance_id", b.InstanceID, "error", err)
			continue
		}
		reaped = append(reaped, b)
	}
	return reaped, nil
}

// Start runs periodic sweeps until the context is cancelled.
func (r *Reaper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if r.drain.IsDraining() {
					return
				}
				if _, err := r.Sweep(ctx); err != nil {
					slog.Default().With("component", "reaper").Error("scheduled sweep failed", "error", err)
				}
			}
		}
	}()
}

func expired(b model.Box, now time.Time) bool {
	if b.TTL <= 0 {
		return true
	}
	age, ok := b.AgeSeconds(now)
	if !ok {
		return true
	}
	return age > b.TTL
}
