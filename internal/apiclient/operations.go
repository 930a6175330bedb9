package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/model"
)

// CreateJob materializes a job from a validated upload. The call is
// idempotent on the API side by upload id, so a 5xx is retried once.
func (c *Client) CreateJob(ctx context.Context, serviceID, uploadID, templateID string, scheduledFor *time.Time) (*model.Job, error) {
	body := map[string]string{
		"id":          uploadID,
		"template_id": templateID,
	}
	if scheduledFor != nil {
		body["scheduled_for"] = scheduledFor.UTC().Format(time.RFC3339)
	}

	var resp struct {
		Data model.Job `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/job", serviceID)
	if err := c.do(ctx, "create_job", http.MethodPost, path, nil, body, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetJob fetches the job projection.
func (c *Client) GetJob(ctx context.Context, serviceID, jobID string) (*model.Job, error) {
	var resp struct {
		Data model.Job `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/job/%s", serviceID, jobID)
	if err := c.do(ctx, "get_job", http.MethodGet, path, nil, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CancelJob requests cancellation; the API treats repeat cancels as no-ops.
func (c *Client) CancelJob(ctx context.Context, serviceID, jobID string) error {
	path := fmt.Sprintf("/service/%s/job/%s/cancel", serviceID, jobID)
	return c.do(ctx, "cancel_job", http.MethodPost, path, nil, nil, nil, true)
}

// JobStatusCounts is the API's minimal per-job progress payload.
type JobStatusCounts struct {
	SentCount          int  `json:"sent_count"`
	FailedCount        int  `json:"failed_count"`
	PendingCount       int  `json:"pending_count"`
	TotalCount         int  `json:"total_count"`
	ProcessingFinished bool `json:"processing_finished"`
}

// GetJobStatus fetches the per-job delivery counts.
func (c *Client) GetJobStatus(ctx context.Context, serviceID, jobID string) (*JobStatusCounts, error) {
	var resp struct {
		Data JobStatusCounts `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/job/%s/status", serviceID, jobID)
	if err := c.do(ctx, "get_job_status", http.MethodGet, path, nil, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// NotificationsQuery narrows a notifications listing.
type NotificationsQuery struct {
	JobID        string
	Page         int
	PageSize     int
	Statuses     []string
	TemplateType string
	LimitDays    int
	To           string
}

// GetNotifications fetches one page of notifications for a service or job.
func (c *Client) GetNotifications(ctx context.Context, serviceID string, q NotificationsQuery) (*model.NotificationPage, error) {
	query := url.Values{}
	if q.JobID != "" {
		query.Set("job_id", q.JobID)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(q.PageSize))
	}
	for _, status := range q.Statuses {
		query.Add("status", status)
	}
	if q.TemplateType != "" {
		query.Set("template_type", q.TemplateType)
	}
	if q.LimitDays > 0 {
		query.Set("limit_days", strconv.Itoa(q.LimitDays))
	}
	if q.To != "" {
		query.Set("to", q.To)
	}

	var page model.NotificationPage
	path := fmt.Sprintf("/service/%s/notifications", serviceID)
	if err := c.do(ctx, "get_notifications", http.MethodGet, path, query, nil, &page, false); err != nil {
		return nil, err
	}
	return &page, nil
}

// ServiceStatistics is the per-type delivery summary for a service.
type ServiceStatistics map[string]struct {
	Requested int `json:"requested"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// GetServiceStatistics fetches per-type delivery counts for the dashboard.
func (c *Client) GetServiceStatistics(ctx context.Context, serviceID string, limitDays int) (ServiceStatistics, error) {
	query := url.Values{}
	if limitDays > 0 {
		query.Set("limit_days", strconv.Itoa(limitDays))
	}

	var resp struct {
		Data ServiceStatistics `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/statistics", serviceID)
	if err := c.do(ctx, "get_service_statistics", http.MethodGet, path, query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetServiceDataRetention returns the retention in days for a template type,
// memoized briefly since retention settings change rarely.
func (c *Client) GetServiceDataRetention(ctx context.Context, serviceID, templateType string, windowDays int) (int, error) {
	memoKey := fmt.Sprintf("retention/%s/%s/%d", serviceID, templateType, windowDays)
	if cached, ok := c.memo.Get(memoKey); ok {
		return cached.(int), nil
	}

	query := url.Values{}
	query.Set("number_of_days", strconv.Itoa(windowDays))

	var resp struct {
		Data struct {
			DaysOfRetention int `json:"days_of_retention"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/data-retention/%s", serviceID, templateType)
	if err := c.do(ctx, "get_service_data_retention", http.MethodGet, path, query, nil, &resp, false); err != nil {
		return 0, err
	}

	c.memo.SetDefault(memoKey, resp.Data.DaysOfRetention)
	return resp.Data.DaysOfRetention, nil
}

// GetTemplate fetches a template at a specific version (0 for current),
// memoized since template versions are immutable.
func (c *Client) GetTemplate(ctx context.Context, serviceID, templateID string, version int) (*model.Template, error) {
	memoKey := fmt.Sprintf("template/%s/%s/%d", serviceID, templateID, version)
	if cached, ok := c.memo.Get(memoKey); ok {
		tmpl := cached.(model.Template)
		return &tmpl, nil
	}

	query := url.Values{}
	if version > 0 {
		query.Set("version", strconv.Itoa(version))
	}

	var resp struct {
		Data model.Template `json:"data"`
	}
	path := fmt.Sprintf("/service/%s/template/%s", serviceID, templateID)
	if err := c.do(ctx, "get_template", http.MethodGet, path, query, nil, &resp, false); err != nil {
		return nil, err
	}

	if version > 0 {
		c.memo.SetDefault(memoKey, resp.Data)
	}
	return &resp.Data, nil
}

// GetService fetches the service record.
func (c *Client) GetService(ctx context.Context, serviceID string) (*model.Service, error) {
	var resp struct {
		Data model.Service `json:"data"`
	}
	path := fmt.Sprintf("/service/%s", serviceID)
	if err := c.do(ctx, "get_service", http.MethodGet, path, nil, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
