package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarts struct {
	idle  time.Duration
	calls int
}

func (f *fakeCarts) EvictIdle(idle time.Duration) int {
	f.idle = idle
	f.calls++
	return 2
}

type fakeResets struct {
	calls int
	err   error
}

func (f *fakeResets) PurgeExpired() (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeLimiter struct {
	idle time.Duration
}

func (f *fakeLimiter) Cleanup(idle time.Duration) int {
	f.idle = idle
	return 1
}

func TestNewMaintenanceScheduler_Defaults(t *testing.T) {
	s := NewMaintenanceScheduler(nil, nil, nil, Settings{CartSchedule: "@every 1m"})

	assert.Equal(t, "@hourly", s.settings.ResetSchedule)
	assert.Equal(t, 10*time.Minute, s.settings.LimiterIdle)
}

func TestMaintenanceScheduler_Jobs(t *testing.T) {
	carts := &fakeCarts{}
	resets := &fakeResets{}
	limiter := &fakeLimiter{}
	s := NewMaintenanceScheduler(carts, resets, limiter, Settings{
		CartSchedule: "@every 1m",
		CartIdleTTL:  30 * time.Minute,
		LimiterIdle:  5 * time.Minute,
	})

	s.evictCarts()
	s.purgeResets()
	s.cleanupLimiter()

	assert.Equal(t, 1, carts.calls)
	assert.Equal(t, 30*time.Minute, carts.idle)
	assert.Equal(t, 1, resets.calls)
	assert.Equal(t, 5*time.Minute, limiter.idle)

	resets.err = errors.New("db down")
	assert.NotPanics(t, s.purgeResets)
}

func TestMaintenanceScheduler_NilDependencies(t *testing.T) {
	s := NewMaintenanceScheduler(nil, nil, nil, Settings{CartSchedule: "@every 1m"})

	assert.NotPanics(t, s.evictCarts)
	assert.NotPanics(t, s.purgeResets)
	assert.NotPanics(t, s.cleanupLimiter)
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeCarts{}, &fakeResets{}, &fakeLimiter{}, Settings{CartSchedule: "@every 1m"})

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(&fakeCarts{}, nil, nil, Settings{CartSchedule: "every now and then"})

	assert.Error(t, s.Start())
}
