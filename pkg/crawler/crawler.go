package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"twcrawler/pkg/checkpoint"
	errs "twcrawler/pkg/errors"
	"twcrawler/pkg/logger"
	"twcrawler/pkg/metadata"
	"twcrawler/pkg/metrics"
	"twcrawler/pkg/retry"
	"twcrawler/pkg/twitter"
)

const (
	// PopularityThreshold is the exclusive upper bound on followers_count for
	// an account to be kept
	PopularityThreshold = 400

	// LookupChunkSize is the number of ids sent per users/lookup call
	LookupChunkSize = twitter.MaxLookupBatch

	// DefaultCooldown is the suspension after a rate-limit signal
	DefaultCooldown = 15 * time.Minute
)

// RecordWriter receives one record per expanded id
type RecordWriter interface {
	WriteRecord(id int64, survivors []int64) error
}

// Reporter receives operator-facing crawl events
type Reporter interface {
	Skipping(id int64, err error)
	ChunkSkipped(offset int, err error)
	RateLimited(endpoint string, cooldown time.Duration, reset time.Time)
	Expanded(id int64, survivors []int64, frontier int)
	Exhausted()
}

// Config tunes a Crawler. Zero values are valid.
type Config struct {
	// Cooldown defaults to DefaultCooldown
	Cooldown time.Duration

	// MaxExpansions stops the crawl after this many records; 0 means no limit
	MaxExpansions int

	// OutputFile is recorded in checkpoints
	OutputFile string

	// Sleep replaces the cooldown wait, mainly for tests
	Sleep retry.SleepFunc

	Reporter    Reporter
	Metrics     *metrics.Recorder
	Checkpoints *checkpoint.Manager
}

// Result describes a finished or interrupted crawl
type Result struct {
	SeedID         int64
	Resumed        bool
	Expanded       int
	SurvivorsTotal int
	Reexpanded     int
	RateLimitWaits int
	ProviderErrors int
	SkippedChunks  int

	// Frontier holds the ids still waiting when the crawl stopped
	Frontier []int64

	Termination string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Summary converts the result into the persisted run summary. err is the
// error Run returned, if any.
func (r *Result) Summary(outputFile string, err error) *metadata.RunSummary {
	s := &metadata.RunSummary{
		SeedID:         r.SeedID,
		OutputFile:     outputFile,
		Resumed:        r.Resumed,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Expanded:       r.Expanded,
		SurvivorsTotal: r.SurvivorsTotal,
		Reexpanded:     r.Reexpanded,
		RateLimitWaits: r.RateLimitWaits,
		ProviderErrors: r.ProviderErrors,
		SkippedChunks:  r.SkippedChunks,
		FrontierLeft:   len(r.Frontier),
		Termination:    r.Termination,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Crawler expands the follower graph breadth first. It is not safe for
// concurrent use.
type Crawler struct {
	provider Provider
	output   RecordWriter
	cfg      Config
	logger   logger.Logger

	stats *Result
	seen  mapset.Set[int64]
}

// New creates a Crawler reading from provider and writing to output
func New(provider Provider, output RecordWriter, cfg Config) *Crawler {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}

	return &Crawler{
		provider: provider,
		output:   output,
		cfg:      cfg,
		logger:   logger.GetLogger().WithField("component", "crawler"),
		stats:    &Result{},
		seen:     mapset.NewThreadUnsafeSet[int64](),
	}
}

// Run crawls from seedID until the frontier is empty, MaxExpansions records
// were written, or ctx is cancelled. The Result is returned on every path.
func (c *Crawler) Run(ctx context.Context, seedID int64) (*Result, error) {
	var cp *checkpoint.Checkpoint
	if c.cfg.Checkpoints != nil {
		var err error
		cp, err = c.cfg.Checkpoints.Create(seedID, c.cfg.OutputFile)
		if err != nil {
			c.logger.WithError(err).Warn("Checkpointing disabled for this run")
		}
	}

	return c.run(ctx, seedID, []int64{seedID}, cp)
}

// Resume continues the crawl stored in cp. Counters start from the
// checkpoint's; the set of ids already expanded is not restored.
func (c *Crawler) Resume(ctx context.Context, cp *checkpoint.Checkpoint) (*Result, error) {
	if cp == nil {
		return nil, errors.New("no checkpoint to resume")
	}

	c.stats.Resumed = true
	c.stats.Expanded = cp.Expanded
	c.stats.SurvivorsTotal = cp.SurvivorsTotal

	frontier := append([]int64(nil), cp.Frontier...)
	return c.run(ctx, cp.SeedID, frontier, cp)
}

func (c *Crawler) run(ctx context.Context, seedID int64, frontier []int64, cp *checkpoint.Checkpoint) (*Result, error) {
	res := c.stats
	res.SeedID = seedID
	res.StartedAt = time.Now()

	finish := func(termination string, remaining []int64, err error) (*Result, error) {
		res.Termination = termination
		res.Frontier = remaining
		res.FinishedAt = time.Now()
		c.cfg.Metrics.SetFrontier(len(remaining))
		return res, err
	}

	c.logger.InfoWithFields("Crawl started", map[string]interface{}{
		"seed_id":  seedID,
		"frontier": len(frontier),
		"resumed":  res.Resumed,
	})
	c.cfg.Metrics.SetFrontier(len(frontier))

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return finish(metadata.TerminationCancelled, frontier, err)
		}
		if c.cfg.MaxExpansions > 0 && res.Expanded >= c.cfg.MaxExpansions {
			c.logger.WithField("max_expansions", c.cfg.MaxExpansions).Info("Expansion limit reached")
			return finish(metadata.TerminationMaxExpansions, frontier, nil)
		}

		id := frontier[0]
		rest := frontier[1:]

		if !c.seen.Add(id) {
			res.Reexpanded++
			c.cfg.Metrics.Reexpanded()
			c.logger.WithField("user_id", id).Debug("Expanding id already expanded in this run")
		}

		followers, partial, err := c.expand(ctx, id)
		if err != nil {
			return finish(metadata.TerminationCancelled, frontier, err)
		}

		survivors, err := c.FilterByPopularity(ctx, followers)
		if err != nil {
			return finish(metadata.TerminationCancelled, frontier, err)
		}

		if err := c.output.WriteRecord(id, survivors); err != nil {
			return finish(metadata.TerminationError, frontier, err)
		}

		frontier = append(rest, survivors...)
		res.Expanded++
		res.SurvivorsTotal += len(survivors)

		c.cfg.Metrics.Expanded(len(survivors))
		c.cfg.Metrics.SetFrontier(len(frontier))
		logger.LogExpansion(id, len(followers), len(followers)-len(survivors), partial)
		c.cfg.Reporter.Expanded(id, survivors, len(frontier))

		if cp != nil {
			if err := c.cfg.Checkpoints.RecordExpansion(cp, frontier, len(survivors)); err != nil {
				c.logger.WithError(err).Warn("Failed to save checkpoint")
			}
		}

		if res.Expanded%100 == 0 {
			logger.LogCrawlProgress(res.Expanded, len(frontier), time.Since(res.StartedAt))
		}
	}

	if cp != nil {
		if err := c.cfg.Checkpoints.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to remove checkpoint")
		}
	}

	c.cfg.Reporter.Exhausted()
	c.logger.InfoWithFields("Frontier exhausted", map[string]interface{}{
		"expanded":  res.Expanded,
		"survivors": res.SurvivorsTotal,
	})
	return finish(metadata.TerminationFrontierExhausted, nil, nil)
}

// ExpandOne collects every follower id of id in provider order. A rate limit
// suspends for the cooldown and retries the same page. Any other provider
// error ends the listing early and the ids gathered so far are returned
// without error. Only cancellation of ctx yields an error.
func (c *Crawler) ExpandOne(ctx context.Context, id int64) ([]int64, error) {
	ids, _, err := c.expand(ctx, id)
	return ids, err
}

// expand is ExpandOne that also reports whether the listing was cut short
func (c *Crawler) expand(ctx context.Context, id int64) ([]int64, bool, error) {
	pages := NewFollowerPages(c.provider, id)
	cfg := c.rateLimitRetry(ctx, twitter.EndpointFollowerIDs)

	var ids []int64
	for {
		page, err := retry.DoWithResult(func() (*twitter.IDsPage, error) {
			return pages.Next(ctx)
		}, cfg)

		switch {
		case err == nil:
			ids = append(ids, page.IDs...)
		case errors.Is(err, ErrNoMorePages):
			return ids, false, nil
		case isCancellation(ctx, err):
			return ids, true, err
		default:
			c.stats.ProviderErrors++
			c.cfg.Metrics.ProviderError("pages", string(errs.TypeOf(err)))
			logger.LogSkip(id, fmt.Errorf("after %d pages: %w", pages.Pages(), err))
			c.cfg.Reporter.Skipping(id, err)
			return ids, true, nil
		}
	}
}

// FilterByPopularity looks ids up in chunks of LookupChunkSize and keeps those
// with fewer than PopularityThreshold followers, in response order chunk by
// chunk. A rate-limited chunk is retried after the cooldown. A chunk failing
// with any other provider error is skipped.
func (c *Crawler) FilterByPopularity(ctx context.Context, ids []int64) ([]int64, error) {
	cfg := c.rateLimitRetry(ctx, twitter.EndpointUsersLookup)

	var survivors []int64
	for start := 0; start < len(ids); start += LookupChunkSize {
		chunk := ids[start:min(start+LookupChunkSize, len(ids))]

		users, err := retry.DoWithResult(func() ([]twitter.User, error) {
			return c.provider.LookupUsers(ctx, chunk)
		}, cfg)
		if err != nil {
			if isCancellation(ctx, err) {
				return survivors, err
			}
			c.stats.ProviderErrors++
			c.stats.SkippedChunks++
			c.cfg.Metrics.ProviderError("lookup", string(errs.TypeOf(err)))
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"offset": start,
				"size":   len(chunk),
			}).Warn("Skipping lookup chunk")
			c.cfg.Reporter.ChunkSkipped(start, err)
			continue
		}

		for _, u := range users {
			if u.FollowersCount < PopularityThreshold {
				survivors = append(survivors, u.ID)
			}
		}
	}

	return survivors, nil
}

func (c *Crawler) rateLimitRetry(ctx context.Context, endpoint string) *retry.Config {
	cfg := retry.RateLimitConfig(ctx, c.cfg.Cooldown)
	cfg.Logger = c.logger
	cfg.Sleep = c.cfg.Sleep
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		reset := errs.ResetOf(err)
		c.stats.RateLimitWaits++
		c.cfg.Metrics.RateLimited(endpoint, delay)
		logger.LogRateLimit(endpoint, delay, reset)
		c.cfg.Reporter.RateLimited(endpoint, delay, reset)
	}
	return cfg
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type nopReporter struct{}

func (nopReporter) Skipping(int64, error)                        {}
func (nopReporter) ChunkSkipped(int, error)                      {}
func (nopReporter) RateLimited(string, time.Duration, time.Time) {}
func (nopReporter) Expanded(int64, []int64, int)                 {}
func (nopReporter) Exhausted()                                   {}
