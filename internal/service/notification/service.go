package notification

import (
	"context"
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/apiclient"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	"github.com/GSA/notifications-admin-sub001/internal/template"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
)

// PageSize is the listing page size; the first page is what the browser
// poller re-renders.
const PageSize = 50

type Servicer interface {
	Page(ctx context.Context, q Query) (*Page, error)
}

// API is the slice of the notifications API client the viewer uses.
type API interface {
	GetNotifications(ctx context.Context, serviceID string, q apiclient.NotificationsQuery) (*model.NotificationPage, error)
}

// Query narrows a notifications listing.
type Query struct {
	ServiceID    string
	JobID        string
	Statuses     []string
	TemplateType string
	Page         int
	To           string
	LimitDays    int
}

// Row is one notification prepared for rendering: redaction applied and the
// one-line preview derived.
type Row struct {
	ID              string            `json:"id"`
	To              string            `json:"to"`
	Status          string            `json:"status"`
	StatusGroup     string            `json:"status_group"`
	Preview         string            `json:"preview"`
	TemplateName    string            `json:"template_name"`
	TemplateType    string            `json:"template_type"`
	CreatedAt       time.Time         `json:"created_at"`
	SentAt          *time.Time        `json:"sent_at,omitempty"`
	JobRowNumber    int               `json:"job_row_number"`
	Personalisation map[string]string `json:"personalisation"`
}

// Page is the paginated projection rendered both as an HTML partial and as
// JSON for the poller.
type Page struct {
	Rows            []Row `json:"notifications"`
	Total           int   `json:"total"`
	PageSize        int   `json:"page_size"`
	MoreThanOnePage bool  `json:"more_than_one_page"`
}

// Service builds paginated notification projections.
type Service struct {
	api    API
	logger *logger.Logger
}

func NewService(api API, log *logger.Logger) *Service {
	return &Service{api: api, logger: log}
}

// Page fetches one page of notifications, expanding aggregate status filters
// and applying personalisation redaction before any rendering.
func (s *Service) Page(ctx context.Context, q Query) (*Page, error) {
	pageIndex := q.Page
	if pageIndex < 1 {
		pageIndex = 1
	}

	apiPage, err := s.api.GetNotifications(ctx, q.ServiceID, apiclient.NotificationsQuery{
		JobID:        q.JobID,
		Page:         pageIndex,
		PageSize:     PageSize,
		Statuses:     model.ExpandStatuses(q.Statuses),
		TemplateType: q.TemplateType,
		LimitDays:    q.LimitDays,
		To:           q.To,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{
		Rows:            make([]Row, 0, len(apiPage.Notifications)),
		Total:           apiPage.Total,
		PageSize:        apiPage.PageSize,
		MoreThanOnePage: apiPage.Links.Next != "",
	}
	for _, n := range apiPage.Notifications {
		page.Rows = append(page.Rows, projectRow(n))
	}
	return page, nil
}

func projectRow(n model.Notification) Row {
	personalisation := n.Personalisation
	if n.Template.RedactPersonalisation {
		personalisation = map[string]string{}
	}
	return Row{
		ID:              n.ID,
		To:              n.To,
		Status:          n.Status,
		StatusGroup:     model.StatusGroup(n.Status),
		Preview:         template.Preview(n.Template, personalisation),
		TemplateName:    n.Template.Name,
		TemplateType:    n.TemplateType,
		CreatedAt:       n.CreatedAt,
		SentAt:          n.SentAt,
		JobRowNumber:    n.JobRowNumber,
		Personalisation: personalisation,
	}
}
