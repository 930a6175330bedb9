package job

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GSA/notifications-admin-sub001/internal/handler"
	"github.com/GSA/notifications-admin-sub001/internal/middleware"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	exportService "github.com/GSA/notifications-admin-sub001/internal/service/export"
	jobService "github.com/GSA/notifications-admin-sub001/internal/service/job"
	notificationService "github.com/GSA/notifications-admin-sub001/internal/service/notification"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
)

type Handler struct {
	jobs          jobService.Servicer
	notifications notificationService.Servicer
	exporter      exportService.Servicer
	tmpl          *template.Template
}

func NewHandler(jobs jobService.Servicer, notifications notificationService.Servicer, exporter exportService.Servicer, tmpl *template.Template) *Handler {
	return &Handler{jobs: jobs, notifications: notifications, exporter: exporter, tmpl: tmpl}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/services/:sid/jobs")
	{
		jobs.POST("", middleware.RequirePermission("send_messages"), h.CreateJob)
		jobs.GET("/:jid", middleware.RequirePermission("view_activity"), h.GetJob)
		jobs.POST("/:jid", middleware.RequirePermission("send_messages"), h.CancelJob)
		jobs.GET("/:jid/status.json", middleware.RequirePermission("view_activity"), h.JobStatus)
	}
}

type createJobRequest struct {
	UploadID     string `form:"upload_id" json:"upload_id" binding:"required,uuid"`
	TemplateID   string `form:"template_id" json:"template_id" binding:"required,uuid"`
	ScheduledFor string `form:"scheduled_for" json:"scheduled_for"`
}

// CreateJob promotes a validated upload into a job and redirects to the job
// page. Uploads that never passed validation are refused.
func (h *Handler) CreateJob(c *gin.Context) {
	serviceID := c.Param("sid")

	var req createJobRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scheduled_for timestamp"))
			return
		}
		scheduledFor = &t
	}

	job, err := h.jobs.Create(c.Request.Context(), serviceID, req.UploadID, req.TemplateID, scheduledFor)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/services/%s/jobs/%s", serviceID, job.ID))
}

// GetJob serves the job detail page and its .json and .csv variants, picked
// by the extension on the job id segment.
func (h *Handler) GetJob(c *gin.Context) {
	serviceID := c.Param("sid")
	jid := c.Param("jid")

	switch {
	case strings.HasSuffix(jid, ".json"):
		h.jobPartials(c, serviceID, strings.TrimSuffix(jid, ".json"))
	case strings.HasSuffix(jid, ".csv"):
		h.jobCSV(c, serviceID, strings.TrimSuffix(jid, ".csv"))
	default:
		h.jobPage(c, serviceID, jid)
	}
}

type jobPageData struct {
	Job           *model.Job
	Progress      *model.Progress
	Notifications *notificationService.Page
}

func (h *Handler) jobPage(c *gin.Context, serviceID, jobID string) {
	job, err := h.jobs.Get(c.Request.Context(), serviceID, jobID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	progress, err := h.jobs.Progress(c.Request.Context(), serviceID, jobID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	page, err := h.notifications.Page(c.Request.Context(), notificationService.Query{
		ServiceID: serviceID,
		JobID:     jobID,
		Statuses:  c.QueryArray("status"),
	})
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.tmpl.ExecuteTemplate(c.Writer, "job", jobPageData{Job: job, Progress: progress, Notifications: page}); err != nil {
		_ = c.Error(err)
	}
}

// jobPartials returns the refreshable blocks for the poller: the progress
// counts and the rendered notifications partial.
func (h *Handler) jobPartials(c *gin.Context, serviceID, jobID string) {
	progress, err := h.jobs.Progress(c.Request.Context(), serviceID, jobID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	page, err := h.notifications.Page(c.Request.Context(), notificationService.Query{
		ServiceID: serviceID,
		JobID:     jobID,
		Statuses:  c.QueryArray("status"),
	})
	if err != nil {
		handler.Error(c, err)
		return
	}

	var notificationsHTML bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&notificationsHTML, "notifications", page); err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}
	var progressHTML bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&progressHTML, "progress", progress); err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"counts":        progress,
		"notifications": notificationsHTML.String(),
		"status":        progressHTML.String(),
	})
}

func (h *Handler) jobCSV(c *gin.Context, serviceID, jobID string) {
	job, err := h.jobs.Get(c.Request.Context(), serviceID, jobID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	fileName := h.exporter.JobFileName(job.TemplateName, job.CreatedAt)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	c.Status(http.StatusOK)

	if err := h.exporter.StreamJob(c.Request.Context(), c.Writer, serviceID, jobID, c.QueryArray("status")); err != nil {
		// Headers are already on the wire; all that is left is to log.
		_ = c.Error(err)
	}
}

// JobStatus serves the minimal poll payload: exactly sent_count,
// failed_count, pending_count, total_count and finished.
func (h *Handler) JobStatus(c *gin.Context) {
	status, err := h.jobs.Status(c.Request.Context(), c.Param("sid"), c.Param("jid"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// CancelJob cancels the job and returns to the service dashboard.
func (h *Handler) CancelJob(c *gin.Context) {
	serviceID := c.Param("sid")
	if err := h.jobs.Cancel(c.Request.Context(), serviceID, c.Param("jid")); err != nil {
		handler.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/services/%s", serviceID))
}
