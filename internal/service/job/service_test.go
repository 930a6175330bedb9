package job

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GSA/notifications-admin-sub001/internal/apiclient"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

type fakeAPI struct {
	job       *model.Job
	counts    *apiclient.JobStatusCounts
	retention int

	created   *model.Job
	cancelled []string
}

func (f *fakeAPI) CreateJob(_ context.Context, serviceID, uploadID, templateID string, _ *time.Time) (*model.Job, error) {
	f.created = &model.Job{ID: uploadID, ServiceID: serviceID, TemplateID: templateID, Status: model.JobPending}
	return f.created, nil
}

func (f *fakeAPI) GetJob(_ context.Context, _, jobID string) (*model.Job, error) {
	if f.job == nil {
		return nil, apperrors.NewNotFound("get_job", nil)
	}
	return f.job, nil
}

func (f *fakeAPI) CancelJob(_ context.Context, _, jobID string) error {
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

func (f *fakeAPI) GetJobStatus(context.Context, string, string) (*apiclient.JobStatusCounts, error) {
	return f.counts, nil
}

func (f *fakeAPI) GetServiceDataRetention(context.Context, string, string, int) (int, error) {
	return f.retention, nil
}

type fakeUploads struct {
	upload *model.Upload
}

func (f *fakeUploads) Get(context.Context, string, string) (*model.Upload, error) {
	if f.upload == nil {
		return nil, apperrors.NewStorageNotFound("bucket", "key", nil)
	}
	return f.upload, nil
}

func newTestService(api *fakeAPI, uploads *fakeUploads) *Service {
	return NewService(api, uploads, logger.NewLogger(nil), metrics.NewMetrics("test", prometheus.NewRegistry()))
}

func TestCreateRefusesUnvalidatedUpload(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(api, &fakeUploads{upload: &model.Upload{ID: "up-1", Valid: false}})

	_, err := svc.Create(context.Background(), "svc-1", "up-1", "tpl-1", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidUpload))
	assert.Nil(t, api.created)
}

func TestCreatePromotesUploadIDToJobID(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(api, &fakeUploads{upload: &model.Upload{ID: "up-1", Valid: true, TemplateType: "sms"}})

	job, err := svc.Create(context.Background(), "svc-1", "up-1", "tpl-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "up-1", job.ID)
}

func TestGetSuppressesCancelledJobs(t *testing.T) {
	api := &fakeAPI{job: &model.Job{ID: "job-1", Status: model.JobCancelled}}
	svc := newTestService(api, &fakeUploads{})

	_, err := svc.Get(context.Background(), "svc-1", "job-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestStatusMapsProcessingFinished(t *testing.T) {
	api := &fakeAPI{counts: &apiclient.JobStatusCounts{
		SentCount:          40,
		FailedCount:        5,
		PendingCount:       5,
		TotalCount:         50,
		ProcessingFinished: true,
	}}
	svc := newTestService(api, &fakeUploads{})

	status, err := svc.Status(context.Background(), "svc-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, &model.JobStatus{
		SentCount:    40,
		FailedCount:  5,
		PendingCount: 5,
		TotalCount:   50,
		Finished:     true,
	}, status)
}

func TestProgressAggregatesStatusGroups(t *testing.T) {
	api := &fakeAPI{
		retention: 7,
		job: &model.Job{
			ID:                "job-1",
			Status:            model.JobInProgress,
			NotificationCount: 100,
			CreatedAt:         time.Now().UTC().Add(-time.Hour),
			Statistics: []model.NotificationStatistic{
				{Status: model.NotificationSending, Count: 10},
				{Status: model.NotificationPending, Count: 5},
				{Status: model.NotificationDelivered, Count: 70},
				{Status: model.NotificationPermanentFailure, Count: 8},
				{Status: model.NotificationTechnicalFailure, Count: 7},
			},
		},
	}
	svc := newTestService(api, &fakeUploads{})

	progress, err := svc.Progress(context.Background(), "svc-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, 15, progress.Sending)
	assert.Equal(t, 70, progress.Delivered)
	assert.Equal(t, 15, progress.Failed)
	assert.Equal(t, 100, progress.Total)
	assert.False(t, progress.Finished)
	assert.Equal(t, "Data available for 6 days", progress.TimeLeft)
}

func TestTimeLeftBuckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	// Created now with seven days retention.
	assert.Equal(t, "Data available for 7 days", timeLeft(now, now, 7))

	// Under a day left switches to an hour count, rounded up.
	created := now.Add(-6*24*time.Hour - 20*time.Hour)
	assert.Equal(t, "Data available for 4 hours", timeLeft(now, created, 7))

	created = now.Add(-6*24*time.Hour - 23*time.Hour - 30*time.Minute)
	assert.Equal(t, "Data available for 1 hours", timeLeft(now, created, 7))

	// Past the window.
	assert.Equal(t, "Data no longer available", timeLeft(now, now.Add(-8*24*time.Hour), 7))
}

func TestCancel(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(api, &fakeUploads{})

	require.NoError(t, svc.Cancel(context.Background(), "svc-1", "job-1"))
	assert.Equal(t, []string{"job-1"}, api.cancelled)
}
