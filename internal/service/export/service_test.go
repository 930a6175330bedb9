package export

import (
	"context"
	"strings"
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
	pages []*model.NotificationPage
	calls int
}

func (f *fakeAPI) GetNotifications(_ context.Context, _ string, q apiclient.NotificationsQuery) (*model.NotificationPage, error) {
	page := f.pages[q.Page-1]
	f.calls++
	return page, nil
}

type fakeReportStore struct {
	objects map[string][]byte
}

func (f *fakeReportStore) Download(_ context.Context, key string) ([]byte, error) {
	payload, ok := f.objects[key]
	if !ok {
		return nil, apperrors.NewStorageNotFound("bucket", key, nil)
	}
	return payload, nil
}

func newTestService(api API, store ReportStore) *Service {
	tz, _ := time.LoadLocation("America/New_York")
	return NewService(api, store, tz, logger.NewLogger(nil), metrics.NewMetrics("test", prometheus.NewRegistry()))
}

func TestJobFileName(t *testing.T) {
	svc := newTestService(&fakeAPI{}, &fakeReportStore{})

	createdAt := time.Date(2024, 3, 15, 13, 0, 5, 0, time.UTC)
	assert.Equal(t, "appointment reminder - 2024-03-15 09.00.05.csv", svc.JobFileName("appointment reminder", createdAt))
}

func TestStreamJobPagesAndLocalizes(t *testing.T) {
	createdAt := time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
	api := &fakeAPI{pages: []*model.NotificationPage{
		{
			Notifications: []model.Notification{{
				JobRowNumber: 1,
				To:           "+15551230001",
				Template:     model.Template{Name: "reminder"},
				TemplateType: "sms",
				CreatedBy:    "Alice",
				JobFileName:  "batch.csv",
				Status:       "delivered",
				CreatedAt:    createdAt,
			}},
			Links: model.PageLinks{Next: "/page2"},
		},
		{
			Notifications: []model.Notification{{
				JobRowNumber: 2,
				To:           "+15551230002",
				Template:     model.Template{Name: "reminder"},
				TemplateType: "sms",
				CreatedBy:    "Alice",
				JobFileName:  "batch.csv",
				Status:       "failed",
				CreatedAt:    createdAt,
			}},
		},
	}}
	svc := newTestService(api, &fakeReportStore{})

	var b strings.Builder
	require.NoError(t, svc.StreamJob(context.Background(), &b, "svc-1", "job-1", nil))

	lines := strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Row number,Recipient,Template,Type,Sent by,Job,Status,Time", lines[0])
	assert.Equal(t, `1,"15551230001",reminder,sms,Alice,batch.csv,delivered,2024-03-15 09:00`, lines[1])
	assert.Equal(t, `2,"15551230002",reminder,sms,Alice,batch.csv,failed,2024-03-15 09:00`, lines[2])
	assert.Equal(t, 2, api.calls)
}

func TestStreamJobHonorsCancellation(t *testing.T) {
	svc := newTestService(&fakeAPI{}, &fakeReportStore{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	err := svc.StreamJob(ctx, &b, "svc-1", "job-1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamServiceReportLocalizesTimestamps(t *testing.T) {
	store := &fakeReportStore{objects: map[string][]byte{
		"7-day-report": []byte("Phone Number,Template,Sent by,Batch File,Sent Time\r\n" +
			"5551230001,reminder,Alice,batch.csv,2024-03-15T13:00:00Z\r\n"),
	}}
	svc := newTestService(&fakeAPI{}, store)

	var b strings.Builder
	require.NoError(t, svc.StreamServiceReport(context.Background(), &b, "seven_day"))

	lines := strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Phone Number,Template,Sent by,Batch File,Sent Time", lines[0])
	assert.Equal(t, "5551230001,reminder,Alice,batch.csv,2024-03-15 09:00", lines[1])
}

func TestStreamServiceReportFallsBackToHeaders(t *testing.T) {
	svc := newTestService(&fakeAPI{}, &fakeReportStore{})

	var b strings.Builder
	require.NoError(t, svc.StreamServiceReport(context.Background(), &b, "three_day"))
	assert.Equal(t, "Phone Number,Template,Sent by,Batch File\r\n", b.String())
}

func TestStreamServiceReportUnknownWindow(t *testing.T) {
	svc := newTestService(&fakeAPI{}, &fakeReportStore{})

	var b strings.Builder
	err := svc.StreamServiceReport(context.Background(), &b, "two_week")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
	assert.Empty(t, b.String())
}

func TestWindowDays(t *testing.T) {
	for window, want := range map[string]int{"one_day": 1, "three_day": 3, "five_day": 5, "seven_day": 7} {
		days, ok := WindowDays(window)
		assert.True(t, ok)
		assert.Equal(t, want, days)
	}
	_, ok := WindowDays("forever")
	assert.False(t, ok)
}
