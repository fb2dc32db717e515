package domain

import "time"

// JobStatus enumerates blog job lifecycle states.
type JobStatus string

const (
	JobStatusInit       JobStatus = "init"
	JobStatusInProgress JobStatus = "inprogress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusInit, JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Rating is the evaluator's verdict on a draft.
type Rating struct {
	Score  int    `json:"score" bson:"score"`
	Review string `json:"review" bson:"review"`
}

// Job is the persisted view of one asynchronous blog generation.
type Job struct {
	TrackingID string       `json:"trackingId" bson:"_id"`
	Topic      string       `json:"topic" bson:"topic"`
	Settings   BlogSettings `json:"settings" bson:"settings"`
	Status     JobStatus    `json:"status" bson:"status"`
	Progress   int          `json:"progress" bson:"progress"`
	Message    string       `json:"message" bson:"message"`
	Title      *string      `json:"title" bson:"title"`
	Content    *string      `json:"content" bson:"content"`
	WordCount  *int         `json:"wordCount" bson:"wordCount"`
	Images     []string     `json:"images" bson:"images"`
	Rating     *Rating      `json:"rating" bson:"rating"`
	Error      string       `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// JobPatch carries a partial update. Nil fields are left untouched.
type JobPatch struct {
	Status    *JobStatus
	Progress  *int
	Message   *string
	Title     *string
	Content   *string
	WordCount *int
	Images    []string
	Rating    *Rating
	Error     *string
}

// NewJob returns a job in the init state.
func NewJob(trackingID, topic string, settings BlogSettings, now time.Time) *Job {
	return &Job{
		TrackingID: trackingID,
		Topic:      topic,
		Settings:   settings,
		Status:     JobStatusInit,
		Progress:   0,
		Message:    "Initializing blog generation...",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Progress returns a patch that moves a job forward while it is running.
func Progress(progress int, message string) JobPatch {
	status := JobStatusInProgress
	return JobPatch{Status: &status, Progress: &progress, Message: &message}
}

// Completed returns the single patch that carries all result fields.
func Completed(title, content string, wordCount int, images []string, rating Rating) JobPatch {
	status := JobStatusCompleted
	progress := 100
	message := "Blog generation completed successfully!"
	if images == nil {
		images = []string{}
	}
	return JobPatch{
		Status:    &status,
		Progress:  &progress,
		Message:   &message,
		Title:     &title,
		Content:   &content,
		WordCount: &wordCount,
		Images:    images,
		Rating:    &rating,
	}
}

// Failed returns the patch recorded when a run aborts.
func Failed(cause error) JobPatch {
	status := JobStatusFailed
	progress := 0
	detail := "unknown error"
	if cause != nil {
		detail = cause.Error()
	}
	message := "Blog generation failed: " + detail
	return JobPatch{Status: &status, Progress: &progress, Message: &message, Error: &detail}
}

// Apply merges p into j. It returns false and leaves j untouched when j is
// already terminal.
func (j *Job) Apply(p JobPatch, now time.Time) bool {
	if j == nil || j.Status.Terminal() {
		return false
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.Message != nil {
		j.Message = *p.Message
	}
	if p.Title != nil {
		j.Title = p.Title
	}
	if p.Content != nil {
		j.Content = p.Content
	}
	if p.WordCount != nil {
		j.WordCount = p.WordCount
	}
	if p.Images != nil {
		j.Images = append(make([]string, 0, len(p.Images)), p.Images...)
	}
	if p.Rating != nil {
		r := *p.Rating
		j.Rating = &r
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	j.UpdatedAt = now
	return true
}

// Terminal reports whether the patch moves a job into a terminal state.
func (p JobPatch) Terminal() bool {
	return p.Status != nil && p.Status.Terminal()
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Title != nil {
		v := *j.Title
		out.Title = &v
	}
	if j.Content != nil {
		v := *j.Content
		out.Content = &v
	}
	if j.WordCount != nil {
		v := *j.WordCount
		out.WordCount = &v
	}
	if j.Images != nil {
		out.Images = append(make([]string, 0, len(j.Images)), j.Images...)
	}
	if j.Rating != nil {
		v := *j.Rating
		out.Rating = &v
	}
	return &out
}
