package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/olehkozhan/contactbook/internal/services"
	"github.com/olehkozhan/contactbook/pkg/logger"
)

const (
	defaultUploadSpec   = "@hourly"
	defaultSessionSpec  = "@daily"
	defaultUploadMaxAge = time.Hour
)

// Cleaner coordinates background maintenance tasks: pruning abandoned avatar
// uploads from the temp directory and clearing session tokens whose JWT expired.
type Cleaner struct {
	auth    *services.AuthService
	tempDir string
	maxAge  time.Duration
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	enabled bool

	uploadSchedule  string
	sessionSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for staleness comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithUploadMaxAge adjusts how long temp uploads are kept before removal.
func WithUploadMaxAge(maxAge time.Duration) Option {
	return func(cleaner *Cleaner) {
		if maxAge > 0 {
			cleaner.maxAge = maxAge
		}
	}
}

// WithUploadSchedule overrides the cron specification for temp upload pruning.
func WithUploadSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.uploadSchedule = spec
		}
	}
}

// WithSessionSchedule overrides the cron specification for session token cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil auth service or an
// empty temp directory results in the corresponding cleanup job being skipped.
func NewCleaner(auth *services.AuthService, tempDir string, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		auth:            auth,
		tempDir:         tempDir,
		maxAge:          defaultUploadMaxAge,
		now:             time.Now,
		uploadSchedule:  defaultUploadSpec,
		sessionSchedule: defaultSessionSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.auth != nil || cleaner.tempDir != ""

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.tempDir != "" {
		if _, err := c.cron.AddFunc(c.uploadSchedule, func() {
			if _, err := PruneTempUploads(c.tempDir, c.now().Add(-c.maxAge)); err != nil {
				c.log.Warn("temp upload cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.auth != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			ctx := context.Background()
			if _, err := c.auth.CleanupExpiredSessionTokens(ctx); err != nil {
				c.log.Warn("session token cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.tempDir != "" {
		if _, err := PruneTempUploads(c.tempDir, c.now().Add(-c.maxAge)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.auth != nil {
		if _, err := c.auth.CleanupExpiredSessionTokens(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// PruneTempUploads removes regular files in dir whose modification time is before cutoff.
// A missing directory is not an error.
func PruneTempUploads(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("prune temp uploads: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("prune temp uploads: %w", err)
		}
		removed++
	}

	return removed, nil
}
