package job

import (
	"context"
	"fmt"
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/apiclient"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

// Retention lookups use the standard seven-day window.
const retentionWindowDays = 7

type Servicer interface {
	Create(ctx context.Context, serviceID, uploadID, templateID string, scheduledFor *time.Time) (*model.Job, error)
	Get(ctx context.Context, serviceID, jobID string) (*model.Job, error)
	Cancel(ctx context.Context, serviceID, jobID string) error
	Status(ctx context.Context, serviceID, jobID string) (*model.JobStatus, error)
	Progress(ctx context.Context, serviceID, jobID string) (*model.Progress, error)
}

// API is the slice of the notifications API client the controller uses.
type API interface {
	CreateJob(ctx context.Context, serviceID, uploadID, templateID string, scheduledFor *time.Time) (*model.Job, error)
	GetJob(ctx context.Context, serviceID, jobID string) (*model.Job, error)
	CancelJob(ctx context.Context, serviceID, jobID string) error
	GetJobStatus(ctx context.Context, serviceID, jobID string) (*apiclient.JobStatusCounts, error)
	GetServiceDataRetention(ctx context.Context, serviceID, templateType string, windowDays int) (int, error)
}

// UploadGetter reads staged upload metadata; satisfied by the upload service.
type UploadGetter interface {
	Get(ctx context.Context, serviceID, uploadID string) (*model.Upload, error)
}

// Service creates and observes jobs through the notifications API.
type Service struct {
	api     API
	uploads UploadGetter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(api API, uploads UploadGetter, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{api: api, uploads: uploads, logger: log, metrics: m}
}

// Create materializes a job from a validated upload. An upload that has not
// passed validation is refused with a 403.
func (s *Service) Create(ctx context.Context, serviceID, uploadID, templateID string, scheduledFor *time.Time) (*model.Job, error) {
	up, err := s.uploads.Get(ctx, serviceID, uploadID)
	if err != nil {
		return nil, err
	}
	if !up.Valid {
		return nil, apperrors.NewInvalidUpload(uploadID)
	}

	job, err := s.api.CreateJob(ctx, serviceID, uploadID, templateID, scheduledFor)
	if err != nil {
		return nil, err
	}

	s.metrics.JobsCreated.WithLabelValues(up.TemplateType).Inc()
	s.logger.Info("job created", "service_id", serviceID, "job_id", job.ID, "rows", up.RowCount)
	return job, nil
}

// Get fetches the job projection. Cancelled jobs are suppressed entirely.
func (s *Service) Get(ctx context.Context, serviceID, jobID string) (*model.Job, error) {
	job, err := s.api.GetJob(ctx, serviceID, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsCancelled() {
		return nil, apperrors.NewNotFound("job", nil)
	}
	return job, nil
}

// Cancel requests cancellation; repeat cancels are no-ops on the API side.
func (s *Service) Cancel(ctx context.Context, serviceID, jobID string) error {
	if err := s.api.CancelJob(ctx, serviceID, jobID); err != nil {
		return err
	}
	s.metrics.JobsCancelled.Inc()
	s.logger.Info("job cancelled", "service_id", serviceID, "job_id", jobID)
	return nil
}

// Status returns the minimal polling payload for a job.
func (s *Service) Status(ctx context.Context, serviceID, jobID string) (*model.JobStatus, error) {
	counts, err := s.api.GetJobStatus(ctx, serviceID, jobID)
	if err != nil {
		return nil, err
	}
	return &model.JobStatus{
		SentCount:    counts.SentCount,
		FailedCount:  counts.FailedCount,
		PendingCount: counts.PendingCount,
		TotalCount:   counts.TotalCount,
		Finished:     counts.ProcessingFinished,
	}, nil
}

// Progress composes the per-job progress view: aggregate counts by status
// group plus the data-retention hint.
func (s *Service) Progress(ctx context.Context, serviceID, jobID string) (*model.Progress, error) {
	job, err := s.Get(ctx, serviceID, jobID)
	if err != nil {
		return nil, err
	}

	progress := &model.Progress{
		Total:    job.NotificationCount,
		Status:   job.Status,
		Finished: job.IsFinished(),
	}
	for _, stat := range job.Statistics {
		switch model.StatusGroup(stat.Status) {
		case "sending":
			progress.Sending += stat.Count
		case "delivered":
			progress.Delivered += stat.Count
		case "failed":
			progress.Failed += stat.Count
		}
	}

	retentionDays, err := s.api.GetServiceDataRetention(ctx, serviceID, job.TemplateType, retentionWindowDays)
	if err != nil {
		return nil, err
	}
	progress.TimeLeft = timeLeft(time.Now().UTC(), job.CreatedAt, retentionDays)
	return progress, nil
}

// timeLeft buckets the remaining data-retention window into user copy.
func timeLeft(now, createdAt time.Time, retentionDays int) string {
	remaining := createdAt.Add(time.Duration(retentionDays) * 24 * time.Hour).Sub(now)
	switch {
	case remaining <= 0:
		return "Data no longer available"
	case remaining >= 24*time.Hour:
		return fmt.Sprintf("Data available for %d days", int(remaining/(24*time.Hour)))
	default:
		hours := int((remaining + time.Hour - 1) / time.Hour)
		return fmt.Sprintf("Data available for %d hours", hours)
	}
}
