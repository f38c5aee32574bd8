package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDailyQuotaExceeded is terminal for the current day window; callers
// must not wait it out or retry.
var ErrDailyQuotaExceeded = errors.New("ratelimit: daily quota exceeded")

// Config sizes the two token buckets. Zero windows default to the
// provider-quota norm of one minute and 24 hours.
type Config struct {
	PerMinute    int
	PerDay       int
	MinuteWindow time.Duration
	DayWindow    time.Duration
}

// Limiter guards one provider with two independent token buckets: a
// short minute-sized bucket that callers wait on, and a day-sized
// bucket that fails hard when drained. Both are consumed together and
// refilled in full once their window has elapsed (no proportional
// leaking).
type Limiter struct {
	cfg Config

	mu           sync.Mutex
	minuteTokens int
	dayTokens    int
	minuteRefill time.Time
	dayRefill    time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Limiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 1
	}
	if cfg.PerDay <= 0 {
		cfg.PerDay = 1
	}
	if cfg.MinuteWindow <= 0 {
		cfg.MinuteWindow = time.Minute
	}
	if cfg.DayWindow <= 0 {
		cfg.DayWindow = 24 * time.Hour
	}
	l := &Limiter{
		cfg:          cfg,
		minuteTokens: cfg.PerMinute,
		dayTokens:    cfg.PerDay,
		now:          time.Now,
		sleep:        sleepCtx,
	}
	t := l.now()
	l.minuteRefill, l.dayRefill = t, t
	return l
}

// Acquire blocks until a token is available in both buckets, then
// decrements both. It fails immediately with ErrDailyQuotaExceeded
// when the day bucket is empty, and re-evaluates both buckets from
// scratch after every wake-up, so a caller that slept through a
// minute window can still fail the daily check.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if now.Sub(l.minuteRefill) >= l.cfg.MinuteWindow {
			l.minuteTokens = l.cfg.PerMinute
			l.minuteRefill = now
		}
		if now.Sub(l.dayRefill) >= l.cfg.DayWindow {
			l.dayTokens = l.cfg.PerDay
			l.dayRefill = now
		}
		if l.dayTokens <= 0 {
			l.mu.Unlock()
			return ErrDailyQuotaExceeded
		}
		if l.minuteTokens > 0 {
			l.minuteTokens--
			l.dayTokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.cfg.MinuteWindow - now.Sub(l.minuteRefill)
		l.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
