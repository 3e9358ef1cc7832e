package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zorvex/zorvex-backend/pkg/logger"
)

// CartEvictor drops carts that have been idle too long.
type CartEvictor interface {
	EvictIdle(idle time.Duration) int
}

// ResetPurger deletes spent and expired password reset tokens.
type ResetPurger interface {
	PurgeExpired() (int64, error)
}

// LimiterCleaner forgets rate limiter state of quiet clients.
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

type Settings struct {
	// CartSchedule is a cron spec such as "@every 1m".
	CartSchedule string
	CartIdleTTL  time.Duration
	// ResetSchedule defaults to hourly.
	ResetSchedule string
	// LimiterIdle defaults to ten minutes.
	LimiterIdle time.Duration
}

// MaintenanceScheduler runs periodic housekeeping for in-memory and stored
// session state.
type MaintenanceScheduler struct {
	cron     *cron.Cron
	carts    CartEvictor
	resets   ResetPurger
	limiter  LimiterCleaner
	settings Settings
}

func NewMaintenanceScheduler(carts CartEvictor, resets ResetPurger, limiter LimiterCleaner, settings Settings) *MaintenanceScheduler {
	if settings.ResetSchedule == "" {
		settings.ResetSchedule = "@hourly"
	}
	if settings.LimiterIdle <= 0 {
		settings.LimiterIdle = 10 * time.Minute
	}
	return &MaintenanceScheduler{
		cron:     cron.New(),
		carts:    carts,
		resets:   resets,
		limiter:  limiter,
		settings: settings,
	}
}

// Start registers the jobs and starts the cron runner. A bad schedule
// leaves nothing running.
func (s *MaintenanceScheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"cart eviction", s.settings.CartSchedule, s.evictCarts},
		{"password reset purge", s.settings.ResetSchedule, s.purgeResets},
		{"rate limiter cleanup", s.settings.ResetSchedule, s.cleanupLimiter},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			logger.Error("Failed to add maintenance cron job", err, map[string]interface{}{
				"job":      job.name,
				"schedule": job.spec,
			})
			return err
		}
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"cart_schedule":  s.settings.CartSchedule,
		"cart_idle_ttl":  s.settings.CartIdleTTL.String(),
		"reset_schedule": s.settings.ResetSchedule,
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) evictCarts() {
	if s.carts == nil {
		return
	}
	if evicted := s.carts.EvictIdle(s.settings.CartIdleTTL); evicted > 0 {
		logger.Debug("Scheduled cart eviction finished", map[string]interface{}{
			"evicted": evicted,
		})
	}
}

func (s *MaintenanceScheduler) purgeResets() {
	if s.resets == nil {
		return
	}
	purged, err := s.resets.PurgeExpired()
	if err != nil {
		logger.Error("Failed to purge password reset tokens", err)
		return
	}
	logger.Info("Purged password reset tokens", map[string]interface{}{
		"purged": purged,
	})
}

func (s *MaintenanceScheduler) cleanupLimiter() {
	if s.limiter == nil {
		return
	}
	if removed := s.limiter.Cleanup(s.settings.LimiterIdle); removed > 0 {
		logger.Debug("Rate limiter cleanup finished", map[string]interface{}{
			"removed": removed,
		})
	}
}
