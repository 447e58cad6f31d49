// Package scheduler runs background jobs once a day at a configured time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of scheduled work
type Job func(ctx context.Context) error

var (
	// ErrInvalidSchedule is returned for a schedule outside "minute hour * * *"
	ErrInvalidSchedule = errors.New("invalid sweep schedule")

	// ErrJobTimeout is returned when a run outlives JobTimeout
	ErrJobTimeout = errors.New("scheduled job timed out")
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Name identifies the job in logs
	Name string

	// Hour and Minute are the daily run time (24h, server local time)
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig(name string) CronTriggerConfig {
	return CronTriggerConfig{
		Name:          name,
		Hour:          7, // 7am
		Minute:        0,
		CheckInterval: time.Minute,
		JobTimeout:    10 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute.
// Only fixed minute and hour fields are understood; "*" keeps the default 7:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 7
	minute = 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if minute, err = parseField(parts[0]); err != nil {
			return 7, 0, err
		}
	}
	if parts[1] != "*" {
		if hour, err = parseField(parts[1]); err != nil {
			return 7, 0, err
		}
	}

	if minute < 0 || minute > 59 {
		return 7, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSchedule, minute)
	}
	if hour < 0 || hour > 23 {
		return 7, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSchedule, hour)
	}
	return hour, minute, nil
}

func parseField(s string) (int, error) {
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: unsupported cron field %q", ErrInvalidSchedule, s)
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// CronTrigger runs a job once a day at the configured time
type CronTrigger struct {
	config CronTriggerConfig
	job    Job
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, job Job, logger *zap.Logger) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config: config,
		job:    job,
		logger: logger.With(zap.String("job", config.Name)),
		now:    time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.config.Hour),
		zap.Int("daily_minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger and waits for a running job to return
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the job if the daily time has come and it has not run today
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	if now.Hour() != c.config.Hour || now.Minute() != c.config.Minute {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	if err := c.RunNow(ctx); err != nil {
		c.logger.Error("Scheduled job failed", zap.Error(err))
	}
	return true
}

// RunNow runs the job immediately under the configured timeout
func (c *CronTrigger) RunNow(ctx context.Context) error {
	if c.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.job(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", ErrJobTimeout, c.config.JobTimeout)
	}
	c.logger.Info("Scheduled job finished",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", err == nil),
	)
	return err
}
