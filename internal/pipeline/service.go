// Package pipeline runs blog generation jobs in the background and exposes
// their progress through a JobStore.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"blogsmith/internal/domain"
	"blogsmith/internal/observability"
	"blogsmith/internal/providers/writer"
)

const (
	DefaultJobTimeout = 10 * time.Minute

	// Quality gate: drafts below either threshold get one rewrite.
	MinQualityScore = 8
	MinWordCount    = 500

	failWriteTimeout = 10 * time.Second
	createAttempts   = 3
)

// Checkpoint messages, written before each stage starts.
const (
	MsgStarting    = "Starting blog generation process..."
	MsgTitle       = "Generating trending topic and title..."
	MsgDraft       = "Writing initial blog content..."
	MsgEvaluate    = "Evaluating blog quality and content..."
	MsgRewrite     = "Rewriting blog to improve quality..."
	MsgSkipRewrite = "Blog quality is good, skipping rewrite..."
	MsgImages      = "Generating relevant images..."
)

var ErrShuttingDown = errors.New("pipeline: shutting down")

// Writer produces the text of an article.
type Writer interface {
	Title(ctx context.Context, topic string) string
	Draft(ctx context.Context, title string, settings domain.BlogSettings) writer.Blog
	Evaluate(ctx context.Context, html string, tone domain.Tone) domain.Rating
	Rewrite(ctx context.Context, draft writer.Blog, review string, settings domain.BlogSettings, title string) writer.Blog
}

// ImageFinder returns illustrative image URLs; it never fails.
type ImageFinder interface {
	Images(ctx context.Context, title, html string) []string
}

type Options struct {
	Store   domain.JobStore
	Writer  Writer
	Images  ImageFinder
	Logger  zerolog.Logger
	Timeout time.Duration
	Now     func() time.Time
	NewID   func(time.Time) string
}

type Service struct {
	store   domain.JobStore
	writer  Writer
	images  ImageFinder
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func(time.Time) string

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("pipeline: job store is required")
	}
	if opts.Writer == nil {
		return nil, errors.New("pipeline: writer is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := opts.NewID
	if newID == nil {
		newID = NewTrackingID
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:   opts.Store,
		writer:  opts.Writer,
		images:  opts.Images,
		logger:  opts.Logger,
		timeout: timeout,
		now:     now,
		newID:   newID,
		baseCtx: ctx,
		cancel:  cancel,
	}, nil
}

// Submit persists a job in the init state and starts generating it in the
// background. The returned job is a snapshot of the init record.
func (s *Service) Submit(ctx context.Context, topic string, settings domain.BlogSettings) (*domain.Job, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}
	settings.Normalize()

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil, ErrShuttingDown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	var job *domain.Job
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		now := s.now()
		job = domain.NewJob(s.newID(now), topic, settings, now)
		err = s.store.Create(ctx, job)
		if !errors.Is(err, domain.ErrDuplicateKey) {
			break
		}
	}
	if err != nil {
		s.wg.Done()
		return nil, fmt.Errorf("create job: %w", err)
	}

	observability.JobsSubmitted.Inc()
	s.logger.Info().Str("tracking_id", job.TrackingID).Str("topic", topic).Msg("pipeline: job created")

	go s.run(job.TrackingID, topic, settings)
	return job.Clone(), nil
}

// Status returns the current job record or domain.ErrNotFound.
func (s *Service) Status(ctx context.Context, trackingID string) (*domain.Job, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, trackingID)
}

// List returns every job, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Job, error) {
	return s.store.ListAll(ctx)
}

// Shutdown stops accepting jobs and waits for in-flight ones. When ctx ends
// first, running jobs are cancelled and recorded as failed.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Service) run(trackingID, topic string, settings domain.BlogSettings) {
	defer s.wg.Done()
	observability.JobsInFlight.Inc()
	defer observability.JobsInFlight.Dec()

	started := time.Now()
	logger := s.logger.With().Str("tracking_id", trackingID).Logger()
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("pipeline: job panicked")
			s.fail(logger, trackingID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := s.generate(ctx, logger, trackingID, topic, settings); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("job exceeded %s timeout", s.timeout)
		}
		s.fail(logger, trackingID, err)
		return
	}
	observability.JobsFinished.WithLabelValues(string(domain.JobStatusCompleted)).Inc()
	observability.JobDuration.Observe(time.Since(started).Seconds())
	logger.Info().Dur("elapsed", time.Since(started)).Msg("pipeline: job completed")
}

func (s *Service) generate(ctx context.Context, logger zerolog.Logger, trackingID, topic string, settings domain.BlogSettings) error {
	if err := s.checkpoint(ctx, trackingID, 10, MsgStarting); err != nil {
		return err
	}

	if err := s.checkpoint(ctx, trackingID, 20, MsgTitle); err != nil {
		return err
	}
	var title string
	timed(writer.StageTitle, func() { title = s.writer.Title(ctx, topic) })
	logger.Debug().Str("title", title).Msg("pipeline: title ready")

	if err := s.checkpoint(ctx, trackingID, 40, MsgDraft); err != nil {
		return err
	}
	var blog writer.Blog
	timed(writer.StageDraft, func() { blog = s.writer.Draft(ctx, title, settings) })
	logger.Debug().Int("words", blog.WordCount).Msg("pipeline: draft ready")

	if err := s.checkpoint(ctx, trackingID, 60, MsgEvaluate); err != nil {
		return err
	}
	var rating domain.Rating
	timed(writer.StageEvaluate, func() { rating = s.writer.Evaluate(ctx, blog.HTML, settings.Tone) })
	logger.Debug().Int("score", rating.Score).Msg("pipeline: draft rated")

	if NeedsRewrite(rating, blog.WordCount) {
		if err := s.checkpoint(ctx, trackingID, 70, MsgRewrite); err != nil {
			return err
		}
		observability.Rewrites.Inc()
		timed(writer.StageRewrite, func() { blog = s.writer.Rewrite(ctx, blog, rating.Review, settings, title) })
		timed(writer.StageEvaluate, func() { rating = s.writer.Evaluate(ctx, blog.HTML, settings.Tone) })
		logger.Debug().Int("words", blog.WordCount).Int("score", rating.Score).Msg("pipeline: draft rewritten")
	} else if err := s.checkpoint(ctx, trackingID, 70, MsgSkipRewrite); err != nil {
		return err
	}

	if err := s.checkpoint(ctx, trackingID, 90, MsgImages); err != nil {
		return err
	}
	images := []string{}
	if s.images != nil {
		timed("images", func() { images = s.images.Images(ctx, title, blog.HTML) })
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.store.Merge(ctx, trackingID, domain.Completed(title, blog.HTML, blog.WordCount, images, rating))
}

// NeedsRewrite is the quality gate applied after the first evaluation.
func NeedsRewrite(rating domain.Rating, wordCount int) bool {
	return rating.Score < MinQualityScore || wordCount < MinWordCount
}

func (s *Service) checkpoint(ctx context.Context, trackingID string, progress int, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Merge(ctx, trackingID, domain.Progress(progress, message)); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

func (s *Service) fail(logger zerolog.Logger, trackingID string, cause error) {
	observability.JobsFinished.WithLabelValues(string(domain.JobStatusFailed)).Inc()
	logger.Error().Err(cause).Msg("pipeline: job failed")
	ctx, cancel := context.WithTimeout(context.Background(), failWriteTimeout)
	defer cancel()
	if err := s.store.Merge(ctx, trackingID, domain.Failed(cause)); err != nil {
		logger.Error().Err(err).Msg("pipeline: record failure failed")
	}
}

func timed(stage string, fn func()) {
	start := time.Now()
	fn()
	observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
