package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GSA/notifications-admin-sub001/internal/handler"
	"github.com/GSA/notifications-admin-sub001/internal/middleware"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	uploadService "github.com/GSA/notifications-admin-sub001/internal/service/upload"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
)

// API is the slice of the notifications API client the handler consults for
// templates and service limits.
type API interface {
	GetTemplate(ctx context.Context, serviceID, templateID string, version int) (*model.Template, error)
	GetService(ctx context.Context, serviceID string) (*model.Service, error)
}

// RowReader serves the first-row preview; satisfied by *rowcache.Cache.
type RowReader interface {
	Row(ctx context.Context, serviceID, jobID string, i int) (map[string]string, bool, error)
}

type Handler struct {
	service uploadService.Servicer
	api     API
	rows    RowReader

	// defaultLimit caps row counts when the API reports no per-service
	// message limit.
	defaultLimit int
}

func NewHandler(service uploadService.Servicer, api API, rows RowReader, defaultLimit int) *Handler {
	return &Handler{service: service, api: api, rows: rows, defaultLimit: defaultLimit}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services/:sid")
	services.Use(middleware.RequirePermission("send_messages"))
	{
		services.POST("/upload", h.CreateUpload)
		services.GET("/upload/:uid/preview", h.PreviewUpload)
		services.POST("/upload/:uid/check", h.CheckUpload)
		services.POST("/contact-list", h.CreateContactList)
	}
}

// CreateUpload accepts a multipart CSV submission, stages it and redirects
// to the preview page for the fresh upload id.
func (h *Handler) CreateUpload(c *gin.Context) {
	serviceID := c.Param("sid")
	templateID := c.PostForm("template_id")
	if templateID == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("template_id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("a CSV file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}

	tmpl, err := h.api.GetTemplate(c.Request.Context(), serviceID, templateID, 0)
	if err != nil {
		handler.Error(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	up, err := h.service.Put(c.Request.Context(), serviceID, user.ID, fileHeader.Filename, tmpl.Type, payload)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.Redirect(http.StatusFound,
		fmt.Sprintf("/services/%s/upload/%s/preview?template_id=%s", serviceID, up.ID, templateID))
}

// CreateContactList stages a reusable recipient list.
func (h *Handler) CreateContactList(c *gin.Context) {
	serviceID := c.Param("sid")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("a CSV file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		handler.Error(c, apperrors.NewInternal(err))
		return
	}

	user := middleware.CurrentUser(c)
	up, err := h.service.PutContactList(c.Request.Context(), serviceID, user.ID, fileHeader.Filename, payload)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(up))
}

// PreviewUpload returns the staged upload together with its first row and a
// rendered message preview.
func (h *Handler) PreviewUpload(c *gin.Context) {
	serviceID := c.Param("sid")
	uploadID := c.Param("uid")
	templateID := c.Query("template_id")

	up, err := h.service.Get(c.Request.Context(), serviceID, uploadID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	firstRow, ok, err := h.rows.Row(c.Request.Context(), serviceID, uploadID, 0)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if !ok {
		firstRow = map[string]string{}
	}

	preview := gin.H{
		"upload":    up,
		"first_row": firstRow,
	}
	if templateID != "" {
		tmpl, err := h.api.GetTemplate(c.Request.Context(), serviceID, templateID, 0)
		if err != nil {
			handler.Error(c, err)
			return
		}
		preview["template"] = tmpl
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(preview))
}

type checkUploadRequest struct {
	TemplateID string `form:"template_id" json:"template_id" binding:"required"`
}

// CheckUpload validates the staged CSV against the selected template and the
// service message limit, marking the upload valid on success. Validation
// failures come back inline on the preview page.
func (h *Handler) CheckUpload(c *gin.Context) {
	serviceID := c.Param("sid")
	uploadID := c.Param("uid")

	var req checkUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tmpl, err := h.api.GetTemplate(c.Request.Context(), serviceID, req.TemplateID, 0)
	if err != nil {
		handler.Error(c, err)
		return
	}
	svc, err := h.api.GetService(c.Request.Context(), serviceID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	limit := svc.MessageLimit
	if limit == 0 {
		limit = h.defaultLimit
	}

	up, err := h.service.Validate(c.Request.Context(), serviceID, uploadID, tmpl, limit)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(up))
}
