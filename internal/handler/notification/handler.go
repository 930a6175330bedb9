package notification

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GSA/notifications-admin-sub001/internal/handler"
	"github.com/GSA/notifications-admin-sub001/internal/middleware"
	exportService "github.com/GSA/notifications-admin-sub001/internal/service/export"
	notificationService "github.com/GSA/notifications-admin-sub001/internal/service/notification"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
)

type Handler struct {
	notifications notificationService.Servicer
	exporter      exportService.Servicer
	tmpl          *template.Template
}

func NewHandler(notifications notificationService.Servicer, exporter exportService.Servicer, tmpl *template.Template) *Handler {
	return &Handler{notifications: notifications, exporter: exporter, tmpl: tmpl}
}

// RegisterRoutes registers the notifications list and its typed and
// formatted variants. The variants are literal paths because gin will not
// mix a parameter with literals in the same segment.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	view := middleware.RequirePermission("view_activity")
	svc := r.Group("/services/:sid")
	{
		svc.GET("/notifications", view, h.List)
		svc.GET("/notifications.json", view, h.List)
		svc.GET("/notifications.csv", view, h.ServiceReport)
		svc.GET("/notifications/sms", view, h.List)
		svc.GET("/notifications/sms.json", view, h.List)
		svc.GET("/notifications/sms.csv", view, h.ServiceReport)
		svc.GET("/notifications/email", view, h.List)
		svc.GET("/notifications/email.json", view, h.List)
		svc.GET("/notifications/email.csv", view, h.ServiceReport)
	}
}

// templateTypeFromPath derives the message type filter from the route, e.g.
// /notifications/sms.json filters to SMS.
func templateTypeFromPath(path string) string {
	last := path[strings.LastIndex(path, "/")+1:]
	last = strings.TrimSuffix(last, ".json")
	last = strings.TrimSuffix(last, ".csv")
	switch last {
	case "sms", "email":
		return last
	}
	return ""
}

// List serves the notifications view. The .json variant returns the rendered
// table partial alongside the row data for in-place refresh.
func (h *Handler) List(c *gin.Context) {
	q := notificationService.Query{
		ServiceID:    c.Param("sid"),
		TemplateType: templateTypeFromPath(c.Request.URL.Path),
		Statuses:     c.QueryArray("status"),
		To:           c.Query("to"),
	}
	if p := c.Query("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid page"))
			return
		}
		q.Page = page
	}
	if d := c.Query("limit_days"); d != "" {
		days, err := strconv.Atoi(d)
		if err != nil || days < 1 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit_days"))
			return
		}
		q.LimitDays = days
	}

	page, err := h.notifications.Page(c.Request.Context(), q)
	if err != nil {
		handler.Error(c, err)
		return
	}

	if strings.HasSuffix(c.Request.URL.Path, ".json") {
		var tableHTML bytes.Buffer
		if err := h.tmpl.ExecuteTemplate(&tableHTML, "notifications", page); err != nil {
			handler.Error(c, apperrors.NewInternal(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"notifications": page,
			"html":          tableHTML.String(),
		})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.tmpl.ExecuteTemplate(c.Writer, "notifications", page); err != nil {
		_ = c.Error(err)
	}
}

// ServiceReport streams the prebuilt service-wide CSV report for the
// requested retention window.
func (h *Handler) ServiceReport(c *gin.Context) {
	window := c.DefaultQuery("number_of_days", "seven_day")
	if _, ok := exportService.WindowDays(window); !ok {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid number_of_days"))
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `inline; filename="notifications.csv"`)
	c.Status(http.StatusOK)

	if err := h.exporter.StreamServiceReport(c.Request.Context(), c.Writer, window); err != nil {
		_ = c.Error(err)
	}
}
