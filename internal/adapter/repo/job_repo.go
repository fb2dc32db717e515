package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"blogsmith/internal/domain"
	"blogsmith/internal/infra"
	"blogsmith/internal/sqlinline"
)

// JobStorePG implements domain.JobStore on PostgreSQL.
type JobStorePG struct {
	sql infra.SQLExecutor
}

// NewJobStore creates a job store backed by the given executor, normally an
// infra.SQLRunner.
func NewJobStore(sql infra.SQLExecutor) *JobStorePG {
	return &JobStorePG{sql: sql}
}

// Create inserts a new job record.
func (r *JobStorePG) Create(ctx context.Context, job *domain.Job) error {
	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertBlogJob,
		job.TrackingID,
		job.Topic,
		settings,
		string(job.Status),
		job.Progress,
		job.Message,
		job.CreatedAt,
	)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Get fetches a job by tracking id.
func (r *JobStorePG) Get(ctx context.Context, trackingID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectBlogJob, trackingID)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Merge updates the provided fields unless the job is terminal or missing.
func (r *JobStorePG) Merge(ctx context.Context, trackingID string, patch domain.JobPatch) error {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	var images, rating []byte
	if patch.Images != nil {
		b, err := json.Marshal(patch.Images)
		if err != nil {
			return fmt.Errorf("encode images: %w", err)
		}
		images = b
	}
	if patch.Rating != nil {
		b, err := json.Marshal(patch.Rating)
		if err != nil {
			return fmt.Errorf("encode rating: %w", err)
		}
		rating = b
	}
	_, err := r.sql.Exec(ctx, sqlinline.QMergeBlogJob,
		trackingID,
		status,
		patch.Progress,
		patch.Message,
		patch.Title,
		patch.Content,
		patch.WordCount,
		images,
		rating,
		patch.Error,
	)
	return err
}

// ListAll returns jobs newest first.
func (r *JobStorePG) ListAll(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBlogJobs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := []domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Delete removes a job. Missing jobs are ignored.
func (r *JobStorePG) Delete(ctx context.Context, trackingID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteBlogJob, trackingID)
	return err
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job      domain.Job
		status   string
		settings []byte
		images   []byte
		rating   []byte
	)
	if err := row.Scan(
		&job.TrackingID,
		&job.Topic,
		&settings,
		&status,
		&job.Progress,
		&job.Message,
		&job.Title,
		&job.Content,
		&job.WordCount,
		&images,
		&rating,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &job.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &job.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(rating) > 0 {
		var r domain.Rating
		if err := json.Unmarshal(rating, &r); err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		job.Rating = &r
	}
	return &job, nil
}

var _ domain.JobStore = (*JobStorePG)(nil)
