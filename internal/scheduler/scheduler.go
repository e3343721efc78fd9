// Package scheduler implements the post scheduling and publication engine:
// a timer-driven loop that selects due scheduled posts, publishes each
// through the platform transport registry, applies the posted/failed
// transition, and spawns the next occurrence of recurring posts.
//
// Concurrency model: a single goroutine owns the ticker loop and cycles are
// serialized behind a mutex, so two batch cycles never run concurrently,
// even when an externally triggered RunOnce races a tick. Within a cycle,
// posts are processed sequentially in due order. Because a cycle only selects
// posts still in 'scheduled' status and the terminal transition is the first
// persisted effect after the transport call, a post is never published twice
// across cycles.
//
// Known tradeoff: if the transport succeeds but the status write fails, the
// post stays 'scheduled' and is reattempted next cycle, which can publish a
// duplicate. This is at-least-once delivery with at-most-once persistence;
// the failure is logged loudly rather than hidden.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/recurrence"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/repo"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/transport"
)

// Default configuration values, overridable via Options.
const (
	DefaultInterval  = time.Minute
	DefaultBatchSize = 10
)

// Options configures a Scheduler.
type Options struct {
	// Enabled gates the timer loop; when false, Start is a no-op and cycles
	// only run through explicit RunOnce calls.
	Enabled bool
	// Interval between batch cycles. Defaults to DefaultInterval.
	Interval time.Duration
	// BatchSize caps the number of due posts selected per cycle. Defaults to
	// DefaultBatchSize.
	BatchSize int
	// Clock defaults to SystemClock.
	Clock Clock
	// Log defaults to a disabled logger.
	Log zerolog.Logger
}

// Summary reports what one batch cycle did.
type Summary struct {
	Processed int `json:"processed"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Spawned   int `json:"spawned"`
}

// Scheduler drives the publication state machine. Construct with New; the
// zero value is not usable.
type Scheduler struct {
	db         *gorm.DB
	transports *transport.Registry
	clock      Clock
	log        zerolog.Logger

	enabled   bool
	interval  time.Duration
	batchSize int

	mu      sync.Mutex // guards running/stop/done
	running bool
	stop    chan struct{}
	done    chan struct{}

	cycleMu sync.Mutex // serializes batch cycles
}

// New builds a Scheduler around the post store and the platform transports.
func New(db *gorm.DB, transports *transport.Registry, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Scheduler{
		db:         db,
		transports: transports,
		clock:      opts.Clock,
		log:        opts.Log,
		enabled:    opts.Enabled,
		interval:   opts.Interval,
		batchSize:  opts.BatchSize,
	}
}

// Interval returns the configured cycle period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// BatchSize returns the configured per-cycle cap.
func (s *Scheduler) BatchSize() int { return s.batchSize }

// Running reports whether the timer loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the timer loop: one immediate cycle to catch posts that came
// due while the process was down, then a cycle every interval. Idempotent:
// calling Start on a running or disabled scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if !s.enabled {
		s.log.Info().Msg("scheduler disabled, not starting")
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	go s.loop(s.stop, s.done)
	s.log.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Msg("scheduler started")
}

// Stop halts future cycles. An in-flight cycle is allowed to complete; Stop
// returns once the loop goroutine has exited. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
	s.log.Info().Msg("scheduler stopped")
}

// loop owns the ticker. Cycles run in this goroutine only, so ticks can never
// overlap: a tick that fires while a cycle is still running is simply the
// next iteration of the select and waits its turn.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	// Catch-up cycle on startup.
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("startup cycle failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.RunOnce(context.Background()); err != nil {
				s.log.Error().Err(err).Msg("batch cycle failed")
			}
		}
	}
}

// RunOnce executes exactly one batch cycle synchronously and returns its
// summary. A selection error aborts the cycle with no post mutated; every
// other failure is isolated to its post. Cycles are serialized, so RunOnce is
// safe to call while the loop is running.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	tr := otel.Tracer("scheduler")
	ctx, span := tr.Start(ctx, "RunOnce")
	defer span.End()

	start := time.Now()
	now := s.clock.Now()

	var sum Summary
	due, err := repo.DuePosts(ctx, s.db, now, s.batchSize)
	if err != nil {
		cycles.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("selecting due posts failed, cycle aborted")
		return sum, fmt.Errorf("select due posts: %w", err)
	}
	span.SetAttributes(attribute.Int("batch.size", len(due)))

	for i := range due {
		outcome := s.processPost(ctx, &due[i], now)
		sum.Processed++
		switch {
		case outcome.published:
			sum.Published++
			postsProcessed.WithLabelValues("posted").Inc()
		default:
			sum.Failed++
			postsProcessed.WithLabelValues("failed").Inc()
		}
		if outcome.spawned {
			sum.Spawned++
			occurrencesSpawned.Inc()
		}
	}

	cycles.WithLabelValues("ok").Inc()
	cycleDuration.Observe(time.Since(start).Seconds())
	if sum.Processed > 0 {
		s.log.Info().
			Int("processed", sum.Processed).
			Int("published", sum.Published).
			Int("failed", sum.Failed).
			Int("spawned", sum.Spawned).
			Msg("batch cycle complete")
	}
	return sum, nil
}

// postOutcome is the per-post result of a cycle.
type postOutcome struct {
	published bool
	spawned   bool
}

// processPost runs the publication state machine for one due post:
// validate, publish, persist the terminal transition, then advance the
// recurrence series on success. Failures (including panics out of a
// transport) are logged and marked on the post; they never propagate.
func (s *Scheduler) processPost(ctx context.Context, post *domain.Post, now time.Time) (out postOutcome) {
	tr := otel.Tracer("scheduler")
	ctx, span := tr.Start(ctx, "processPost",
		trace.WithAttributes(
			attribute.String("post.id", post.ID),
			attribute.String("post.mode", string(post.Mode)),
			attribute.String("account.platform", string(post.Account.Platform)),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("post_id", post.ID).Interface("panic", r).Msg("panic while publishing post")
			s.markFailed(ctx, post, fmt.Sprintf("internal error: %v", r), now)
		}
	}()

	// Preconditions: supported platform, credential, valid content. Any
	// violation fails the post without a transport call.
	if !s.transports.Supports(post.Account.Platform) {
		s.markFailed(ctx, post, fmt.Sprintf("unsupported platform: %s", post.Account.Platform), now)
		return out
	}
	if post.Account.AccessToken == "" {
		s.markFailed(ctx, post, "account has no credential", now)
		return out
	}
	content, err := post.Content()
	if err != nil {
		s.markFailed(ctx, post, fmt.Sprintf("invalid content: %v", err), now)
		return out
	}

	res, err := s.transports.Publish(ctx, transport.PublishRequest{
		Platform:   post.Account.Platform,
		Credential: post.Account.AccessToken,
		Content:    content,
		Media:      post.Media,
	})
	if err != nil {
		s.markFailed(ctx, post, publishErrorMessage(err), now)
		return out
	}

	postedAt := s.clock.Now()
	if err := repo.MarkPosted(ctx, s.db, post.ID, postedAt, res.PublishedID, res.ThreadIDs); err != nil {
		// The publish went out but the result write was lost: the post stays
		// 'scheduled' and will be retried, possibly duplicating the publish.
		s.log.Error().Err(err).
			Str("post_id", post.ID).
			Str("published_id", res.PublishedID).
			Msg("post published but status write failed; will be retried (possible duplicate)")
		return out
	}
	out.published = true
	s.log.Info().
		Str("post_id", post.ID).
		Str("published_id", res.PublishedID).
		Str("platform", string(post.Account.Platform)).
		Msg("post published")

	// Advance the series only after the posted transition is durable.
	if post.RepeatEnabled {
		child, ok := recurrence.Next(post, now)
		if !ok {
			return out
		}
		if err := repo.CreatePost(ctx, s.db, child); err != nil {
			// The original post stays posted; the series just ends here.
			s.log.Error().Err(err).
				Str("post_id", post.ID).
				Msg("failed to spawn next occurrence")
			return out
		}
		out.spawned = true
		s.log.Info().
			Str("post_id", post.ID).
			Str("next_id", child.ID).
			Time("next_at", *child.ScheduledAt).
			Int("occurrence", child.Occurrence).
			Msg("next occurrence scheduled")
	}
	return out
}

// markFailed persists the failed transition and logs at warn level. A failed
// status write is logged but otherwise swallowed: the post stays 'scheduled'
// and the next cycle retries it.
func (s *Scheduler) markFailed(ctx context.Context, post *domain.Post, message string, now time.Time) {
	s.log.Warn().
		Str("post_id", post.ID).
		Str("reason", message).
		Msg("post failed")
	if err := repo.MarkFailed(ctx, s.db, post.ID, message, now); err != nil {
		s.log.Error().Err(err).Str("post_id", post.ID).Msg("failed-status write failed")
	}
}

// publishErrorMessage extracts a user-facing message from a transport error.
func publishErrorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "publish failed"
	}
	return err.Error()
}
