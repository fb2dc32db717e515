package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"blogsmith/internal/domain"
	"blogsmith/internal/observability"
)

const (
	DefaultStaleAfter      = 24 * time.Hour
	DefaultJanitorInterval = 5 * time.Minute
)

// CleanupType selects which jobs a cleanup removes.
type CleanupType string

const (
	// CleanupOld removes every job not updated within the stale window.
	CleanupOld CleanupType = "all"
	// CleanupByStatus removes stale completed, failed and abandoned jobs.
	CleanupByStatus CleanupType = "status"
)

// StatusCounts tallies jobs per lifecycle state.
type StatusCounts struct {
	Init       int `json:"init"`
	InProgress int `json:"inprogress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

func (c *StatusCounts) add(status domain.JobStatus) {
	switch status {
	case domain.JobStatusInit:
		c.Init++
	case domain.JobStatusInProgress:
		c.InProgress++
	case domain.JobStatusCompleted:
		c.Completed++
	case domain.JobStatusFailed:
		c.Failed++
	}
}

// CleanupStats describes the store before or after a cleanup.
type CleanupStats struct {
	Total       int          `json:"total"`
	Old         int          `json:"old"`
	ByStatus    StatusCounts `json:"byStatus"`
	OldByStatus StatusCounts `json:"oldByStatus"`
}

// DeletedJob identifies one removed job. Status is "abandoned" for jobs
// that never left inprogress.
type DeletedJob struct {
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Breakdown struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
}

type CleanupResult struct {
	DryRun      bool          `json:"dryRun"`
	Deleted     int           `json:"deleted"`
	WouldDelete int           `json:"wouldDelete,omitempty"`
	Message     string        `json:"message"`
	DeletedJobs []DeletedJob  `json:"deletedJobs,omitempty"`
	Breakdown   *Breakdown    `json:"breakdown,omitempty"`
	StatsBefore *CleanupStats `json:"statsBefore,omitempty"`
	StatsAfter  *CleanupStats `json:"statsAfter,omitempty"`
}

// Janitor removes jobs whose prune timer never fired, for example after a
// restart, plus jobs abandoned mid-run.
type Janitor struct {
	store      domain.JobStore
	staleAfter time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewJanitor(store domain.JobStore, staleAfter time.Duration, logger zerolog.Logger) *Janitor {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Janitor{
		store:      store,
		staleAfter: staleAfter,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (j *Janitor) cutoff() time.Time {
	return j.now().Add(-j.staleAfter)
}

func (j *Janitor) Stats(ctx context.Context) (CleanupStats, error) {
	jobs, err := j.store.ListAll(ctx)
	if err != nil {
		return CleanupStats{}, fmt.Errorf("list jobs: %w", err)
	}
	cutoff := j.cutoff()
	var stats CleanupStats
	for _, job := range jobs {
		stats.Total++
		stats.ByStatus.add(job.Status)
		if job.UpdatedAt.Before(cutoff) {
			stats.Old++
			stats.OldByStatus.add(job.Status)
		}
	}
	return stats, nil
}

// Cleanup runs a cleanup of the given type. A dry run reports what the same
// cleanup would delete without deleting anything.
func (j *Janitor) Cleanup(ctx context.Context, kind CleanupType, dryRun bool) (CleanupResult, error) {
	before, err := j.Stats(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	match := matchOld
	if kind == CleanupByStatus {
		match = matchByStatus
	}
	if dryRun {
		planned, err := j.sweep(ctx, match, true)
		if err != nil {
			return CleanupResult{}, err
		}
		return CleanupResult{
			DryRun:      true,
			Message:     "Dry run completed - no jobs were deleted",
			WouldDelete: planned.Deleted,
			Breakdown:   planned.Breakdown,
			StatsBefore: &before,
		}, nil
	}
	result, err := j.sweep(ctx, match, false)
	if err != nil {
		return CleanupResult{}, err
	}
	after, err := j.Stats(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	result.StatsBefore = &before
	result.StatsAfter = &after
	return result, nil
}

// CleanupOld deletes every job not updated within the stale window.
func (j *Janitor) CleanupOld(ctx context.Context) (CleanupResult, error) {
	return j.sweep(ctx, matchOld, false)
}

// CleanupByStatus deletes stale completed and failed jobs, and inprogress
// jobs that were abandoned. Stale init jobs are kept.
func (j *Janitor) CleanupByStatus(ctx context.Context) (CleanupResult, error) {
	return j.sweep(ctx, matchByStatus, false)
}

func matchOld(job domain.Job) (string, bool) {
	return string(job.Status), true
}

func matchByStatus(job domain.Job) (string, bool) {
	switch job.Status {
	case domain.JobStatusCompleted, domain.JobStatusFailed:
		return string(job.Status), true
	case domain.JobStatusInProgress:
		return "abandoned", true
	}
	return "", false
}

// sweep deletes stale jobs accepted by match. With plan set it only counts them.
func (j *Janitor) sweep(ctx context.Context, match func(domain.Job) (string, bool), plan bool) (CleanupResult, error) {
	jobs, err := j.store.ListAll(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("list jobs: %w", err)
	}
	cutoff := j.cutoff()
	result := CleanupResult{Breakdown: &Breakdown{}}
	for _, job := range jobs {
		if !job.UpdatedAt.Before(cutoff) {
			continue
		}
		label, ok := match(job)
		if !ok {
			continue
		}
		if !plan {
			if err := j.store.Delete(ctx, job.TrackingID); err != nil {
				return CleanupResult{}, fmt.Errorf("delete job %s: %w", job.TrackingID, err)
			}
			observability.JobsCleaned.WithLabelValues(label).Inc()
		}
		switch label {
		case string(domain.JobStatusCompleted):
			result.Breakdown.Completed++
		case string(domain.JobStatusFailed):
			result.Breakdown.Failed++
		case "abandoned":
			result.Breakdown.Abandoned++
		}
		result.DeletedJobs = append(result.DeletedJobs, DeletedJob{
			TrackingID: job.TrackingID,
			Status:     label,
			UpdatedAt:  job.UpdatedAt,
		})
	}
	result.Deleted = len(result.DeletedJobs)
	if plan {
		return result, nil
	}
	if result.Deleted == 0 {
		result.Message = "No old jobs found"
	} else {
		result.Message = fmt.Sprintf("Successfully deleted %d old jobs", result.Deleted)
	}
	j.logger.Info().Int("deleted", result.Deleted).Msg("janitor: cleanup finished")
	return result, nil
}

// Run performs a status cleanup every interval until ctx ends.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	j.logger.Info().Dur("interval", interval).Dur("stale_after", j.staleAfter).Msg("janitor: started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := j.CleanupByStatus(ctx); err != nil {
				j.logger.Error().Err(err).Msg("janitor: cleanup failed")
			}
		}
	}
}
