package conversation

import (
	"context"
	"log/slog"
	"time"
)

// DefaultCleanupInterval is how often idle sessions are swept.
const DefaultCleanupInterval = time.Minute

// StaleCleaner drops per-session data that has been unused for maxAge.
// It returns how many entries were removed.
type StaleCleaner interface {
	CleanupStale(maxAge time.Duration) int
}

type companion struct {
	cleaner StaleCleaner
	name    string
}

// CleanupService sweeps idle sessions out of a Store, along with any
// per-session data kept elsewhere, on a single ticker.
type CleanupService struct {
	store      *Store
	logger     *slog.Logger
	companions []companion
	interval   time.Duration
}

// CleanupOption configures a CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval sets the sweep interval.
func WithCleanupInterval(d time.Duration) CleanupOption {
	return func(c *CleanupService) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithStaleCleaner sweeps cleaner on every pass using the store's session
// window as the maximum age.
func WithStaleCleaner(name string, cleaner StaleCleaner) CleanupOption {
	return func(c *CleanupService) {
		if cleaner != nil {
			c.companions = append(c.companions, companion{cleaner: cleaner, name: name})
		}
	}
}

// WithCleanupLogger sets the logger.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(c *CleanupService) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCleanupService creates a cleanup service for store.
func NewCleanupService(store *Store, opts ...CleanupOption) *CleanupService {
	c := &CleanupService{
		store:    store,
		interval: DefaultCleanupInterval,
		logger:   slog.Default().With(slog.String("component", "conversation.cleanup")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SweepReport is the outcome of one sweep.
type SweepReport struct {
	Sessions SweepResult
	// Stale counts entries dropped per companion cleaner.
	Stale map[string]int
}

// Sweep runs one pass: idle sessions first, then every companion cleaner.
func (c *CleanupService) Sweep(ctx context.Context) SweepReport {
	report := SweepReport{
		Sessions: c.store.Sweep(),
		Stale:    make(map[string]int, len(c.companions)),
	}

	window := c.store.Window()
	for _, comp := range c.companions {
		report.Stale[comp.name] = comp.cleaner.CleanupStale(window)
	}

	c.log(ctx, report)
	return report
}

func (c *CleanupService) log(ctx context.Context, report SweepReport) {
	attrs := []any{
		slog.Int("removed", report.Sessions.Removed),
		slog.Int("in_flight", report.Sessions.InFlight),
		slog.Int("remaining", report.Sessions.Remaining),
	}
	stale := 0
	for name, n := range report.Stale {
		attrs = append(attrs, slog.Int(name+"_removed", n))
		stale += n
	}

	if report.Sessions.Removed > 0 || stale > 0 {
		c.logger.InfoContext(ctx, "Swept idle sessions", attrs...)
		return
	}
	c.logger.DebugContext(ctx, "Nothing to sweep", attrs...)
}

// Run sweeps once immediately and then every interval until ctx is done.
func (c *CleanupService) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.DebugContext(ctx, "Cleanup stopped")
			return nil
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}
