// Package export streams CSV reports of notifications, either live from the
// notifications API for a single job or from a prebuilt object-store report
// for a service-wide retention window.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/apiclient"
	"github.com/GSA/notifications-admin-sub001/internal/model"
	"github.com/GSA/notifications-admin-sub001/internal/storage"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

// ReportHeader is the header row of service-wide reports, also served alone
// when the prebuilt report is missing.
var ReportHeader = []string{"Phone Number", "Template", "Sent by", "Batch File"}

var jobExportHeader = []string{"Row number", "Recipient", "Template", "Type", "Sent by", "Job", "Status", "Time"}

// Retention windows accepted by the service-wide export.
var windowDays = map[string]int{
	"one_day":   1,
	"three_day": 3,
	"five_day":  5,
	"seven_day": 7,
}

// WindowDays maps a number_of_days request value to its day count.
func WindowDays(window string) (int, bool) {
	days, ok := windowDays[window]
	return days, ok
}

type Servicer interface {
	StreamJob(ctx context.Context, w io.Writer, serviceID, jobID string, statuses []string) error
	StreamServiceReport(ctx context.Context, w io.Writer, window string) error
	JobFileName(templateName string, createdAt time.Time) string
}

// API is the slice of the notifications API client the exporter uses.
type API interface {
	GetNotifications(ctx context.Context, serviceID string, q apiclient.NotificationsQuery) (*model.NotificationPage, error)
}

// ReportStore reads prebuilt report objects; satisfied by *storage.Store.
type ReportStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Service streams CSV exports. All timestamps leave the system in the
// service's timezone; everything upstream is UTC.
type Service struct {
	api     API
	store   ReportStore
	tz      *time.Location
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(api API, store ReportStore, tz *time.Location, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{api: api, store: store, tz: tz, logger: log, metrics: m}
}

// JobFileName is the download name for a job-scoped export.
func (s *Service) JobFileName(templateName string, createdAt time.Time) string {
	return fmt.Sprintf("%s - %s.csv", templateName, createdAt.In(s.tz).Format("2006-01-02 15.04.05"))
}

// StreamJob streams every notification of a job as CSV, fetching API pages
// lazily so the export never buffers fully in memory. The context aborts the
// stream when the client disconnects.
func (s *Service) StreamJob(ctx context.Context, w io.Writer, serviceID, jobID string, statuses []string) error {
	if err := writeRow(w, jobExportHeader); err != nil {
		return err
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		apiPage, err := s.api.GetNotifications(ctx, serviceID, apiclient.NotificationsQuery{
			JobID:    jobID,
			Page:     page,
			PageSize: ExportPageSize,
			Statuses: model.ExpandStatuses(statuses),
		})
		if err != nil {
			return err
		}

		for _, n := range apiPage.Notifications {
			cells := []string{
				strconv.Itoa(n.JobRowNumber),
				n.To,
				n.Template.Name,
				n.TemplateType,
				n.CreatedBy,
				n.JobFileName,
				n.Status,
				n.CreatedAt.In(s.tz).Format("2006-01-02 15:04"),
			}
			if err := writeRow(w, cells); err != nil {
				return err
			}
			s.metrics.ExportRows.Inc()
		}

		if apiPage.Links.Next == "" {
			return nil
		}
		page++
	}
}

// ExportPageSize is the internal page size for job-scoped streaming.
const ExportPageSize = 5000

// StreamServiceReport serves a prebuilt service-wide report for a standard
// retention window, converting its UTC timestamps to the service timezone.
// A missing or unreadable report degrades to a headers-only CSV.
func (s *Service) StreamServiceReport(ctx context.Context, w io.Writer, window string) error {
	days, ok := WindowDays(window)
	if !ok {
		return apperrors.NewValidation(fmt.Sprintf("unknown report window %q", window))
	}

	key := storage.ReportKey(days)
	data, err := s.store.Download(ctx, key)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrStorageNotFound) || apperrors.IsCode(err, apperrors.ErrStorageRead) {
			s.logger.Error(err, "prebuilt report unavailable", "key", key)
			s.metrics.ReportFallbacks.WithLabelValues(window).Inc()
			return writeRow(w, ReportHeader)
		}
		return err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperrors.NewStorageRead("", key, err)
		}

		if !first {
			for i, cell := range record {
				record[i] = s.localizeTimestamp(cell)
			}
			s.metrics.ExportRows.Inc()
		}
		first = false

		if err := writeRow(w, record); err != nil {
			return err
		}
	}
}

// localizeTimestamp rewrites a UTC RFC 3339 cell into the service timezone.
// Prebuilt reports carry their timestamp column in UTC; non-timestamp cells
// pass through untouched.
func (s *Service) localizeTimestamp(cell string) string {
	t, err := time.Parse(time.RFC3339, cell)
	if err != nil {
		return cell
	}
	return t.In(s.tz).Format("2006-01-02 15:04")
}
