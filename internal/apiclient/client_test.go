package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		HostName:       baseURL,
		ClientUserName: "notify-admin",
		ClientSecret:   "test-secret",
	}, logger.NewLogger(nil), metrics.NewMetrics("test", prometheus.NewRegistry()))
}

func TestGetJobDecodesEnvelope(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/service/svc-1/job/job-1", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"job-1","job_status":"finished","template_name":"reminder"}}`))
	}))
	defer srv.Close()

	job, err := newTestClient(srv.URL).GetJob(context.Background(), "svc-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "finished", job.Status)
	assert.Equal(t, "reminder", job.TemplateName)
	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
}

func TestGetRetriesOnceOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":{"id":"job-1"}}`))
	}))
	defer srv.Close()

	job, err := newTestClient(srv.URL).GetJob(context.Background(), "svc-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, 2, calls)
}

func TestServerErrorGivesUpAfterSecondAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetJob(context.Background(), "svc-1", "job-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrAPIServer))
	assert.Equal(t, 2, calls)
}

func TestClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"scheduled_for must be in the future"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateJob(context.Background(), "svc-1", "up-1", "tpl-1", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrAPIClient, appErr.Code)
	assert.Equal(t, "scheduled_for must be in the future", appErr.Message)
}

func TestCreateJobRetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"up-1"}}`))
	}))
	defer srv.Close()

	job, err := newTestClient(srv.URL).CreateJob(context.Background(), "svc-1", "up-1", "tpl-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "up-1", job.ID)
	assert.Equal(t, 2, calls)
}

func TestNotFoundMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetJob(context.Background(), "svc-1", "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestGetNotificationsQueryAndFlatDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "job-1", r.URL.Query().Get("job_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, []string{"delivered", "failed"}, r.URL.Query()["status"])
		w.Write([]byte(`{"notifications":[{"id":"n-1","status":"delivered"}],"total":51,"page_size":50,"links":{"next":"/page3"}}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).GetNotifications(context.Background(), "svc-1", NotificationsQuery{
		JobID:    "job-1",
		Page:     2,
		Statuses: []string{"delivered", "failed"},
	})
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "n-1", page.Notifications[0].ID)
	assert.Equal(t, 51, page.Total)
	assert.Equal(t, "/page3", page.Links.Next)
}

func TestGetServiceStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service/svc-1/statistics", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("limit_days"))
		w.Write([]byte(`{"data":{"sms":{"requested":10,"delivered":8,"failed":2}}}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).GetServiceStatistics(context.Background(), "svc-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 10, stats["sms"].Requested)
	assert.Equal(t, 8, stats["sms"].Delivered)
	assert.Equal(t, 2, stats["sms"].Failed)
}

func TestGetTemplateMemoizesPinnedVersions(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":{"id":"tpl-1","version":3,"content":"hello ((name))"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	first, err := client.GetTemplate(ctx, "svc-1", "tpl-1", 3)
	require.NoError(t, err)
	second, err := client.GetTemplate(ctx, "svc-1", "tpl-1", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Content, second.Content)

	// The current version is never memoized; it can change under us.
	_, err = client.GetTemplate(ctx, "svc-1", "tpl-1", 0)
	require.NoError(t, err)
	_, err = client.GetTemplate(ctx, "svc-1", "tpl-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
