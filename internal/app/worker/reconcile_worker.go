package worker

import (
	"context"
	"time"

	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/cache"
	"hackathon_portal/internal/platform/logger"
	"hackathon_portal/internal/platform/metrics"

	"go.uber.org/zap"
)

// ReconcileWorker periodically copies each team's problem selection onto
// team members whose profile is still unlocked, e.g. members who joined the
// team after it selected. Only one instance sweeps at a time.
type ReconcileWorker struct {
	profileRepo repository.ProfileRepository
	locker      *cache.Locker
	interval    time.Duration
	lockKey     string
}

func NewReconcileWorker(profileRepo repository.ProfileRepository, locker *cache.Locker, interval time.Duration, lockKey string) *ReconcileWorker {
	return &ReconcileWorker{
		profileRepo: profileRepo,
		locker:      locker,
		interval:    interval,
		lockKey:     lockKey,
	}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	logger.L().Info("Reconcile worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.L().Info("Reconcile worker stopping")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				logger.L().Error("Reconcile sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of profiles synced.
// It returns zero without error when another instance holds the lock.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (int64, error) {
	// The lock outlives a slow sweep by at most one interval.
	lock, err := w.locker.TryAcquire(ctx, w.lockKey, w.interval)
	if err != nil {
		return 0, err
	}
	if lock == nil {
		logger.L().Debug("Reconcile lock held by another instance")
		return 0, nil
	}
	defer func() {
		released, err := lock.Release(context.WithoutCancel(ctx))
		if err != nil {
			logger.L().Error("Failed to release reconcile lock", zap.String("key", w.lockKey), zap.Error(err))
		} else if !released {
			logger.L().Warn("Reconcile lock expired before release", zap.String("key", w.lockKey))
		}
	}()

	n, err := w.profileRepo.ReconcileTeams(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReconciledProfiles.Add(float64(n))
		logger.L().Info("Synced profiles to team selections", zap.Int64("profiles", n))
	}
	return n, nil
}
