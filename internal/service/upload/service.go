package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GSA/notifications-admin-sub001/internal/model"
	"github.com/GSA/notifications-admin-sub001/internal/rowcache"
	"github.com/GSA/notifications-admin-sub001/internal/storage"
	"github.com/GSA/notifications-admin-sub001/internal/template"
	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

// Required recipient columns per template type.
const (
	PhoneColumn = "phone number"
	EmailColumn = "email address"
)

type Servicer interface {
	Put(ctx context.Context, serviceID, userID, fileName, templateType string, payload []byte) (*model.Upload, error)
	PutContactList(ctx context.Context, serviceID, userID, fileName string, payload []byte) (*model.Upload, error)
	Validate(ctx context.Context, serviceID, uploadID string, tmpl *model.Template, rowLimit int) (*model.Upload, error)
	Get(ctx context.Context, serviceID, uploadID string) (*model.Upload, error)
}

// ObjectStore is the slice of the storage adapter the ingestor uses.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
	Download(ctx context.Context, key string) ([]byte, error)
	GetMetadata(ctx context.Context, key string) (map[string]string, error)
	SetMetadata(ctx context.Context, key string, metadata map[string]string) error
}

// RowSeeder seeds the row cache; satisfied by *rowcache.Cache.
type RowSeeder interface {
	Seed(ctx context.Context, jobID, csvText string) error
}

// Service accepts CSV submissions, persists them to object storage and seeds
// the row cache. Contact lists land in their own bucket with their own
// credentials.
type Service struct {
	store    ObjectStore
	contacts ObjectStore
	cache    RowSeeder
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(store, contacts ObjectStore, cache RowSeeder, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, contacts: contacts, cache: cache, logger: log, metrics: m}
}

// Put stages a CSV payload: assigns a fresh upload id, strips trailing blank
// lines, writes the object with validation metadata and seeds the row cache.
func (s *Service) Put(ctx context.Context, serviceID, userID, fileName, templateType string, payload []byte) (*model.Upload, error) {
	lines := rowcache.SplitLines(string(payload))
	if len(lines) == 0 {
		return nil, apperrors.NewValidation("the file is empty")
	}
	text := strings.Join(lines, "\r\n")

	up := &model.Upload{
		ServiceID:        serviceID,
		ID:               uuid.New().String(),
		OriginalFileName: fileName,
		RowCount:         len(lines) - 1,
		TemplateType:     templateType,
		Valid:            false,
		CreatedBy:        userID,
		CreatedAt:        time.Now().UTC(),
	}

	key := storage.UploadKey(serviceID, up.ID)
	if err := s.store.Upload(ctx, key, []byte(text), "text/csv", up.Metadata()); err != nil {
		return nil, err
	}

	// A failed seed is recovered transparently by a cache refresh on first
	// read, so it does not fail the upload.
	if err := s.cache.Seed(ctx, up.ID, text); err != nil {
		s.logger.Error(err, "failed to seed row cache", "upload_id", up.ID)
	}

	s.metrics.UploadsIngested.Inc()
	s.metrics.UploadRows.Observe(float64(up.RowCount))
	s.logger.Info("upload staged", "service_id", serviceID, "upload_id", up.ID, "rows", up.RowCount)
	return up, nil
}

// PutContactList stages a reusable recipient list in the contact list
// bucket. Contact lists are not seeded into the row cache; they are read
// back in full when a send references them.
func (s *Service) PutContactList(ctx context.Context, serviceID, userID, fileName string, payload []byte) (*model.Upload, error) {
	lines := rowcache.SplitLines(string(payload))
	if len(lines) == 0 {
		return nil, apperrors.NewValidation("the file is empty")
	}
	text := strings.Join(lines, "\r\n")

	up := &model.Upload{
		ServiceID:        serviceID,
		ID:               uuid.New().String(),
		OriginalFileName: fileName,
		RowCount:         len(lines) - 1,
		Valid:            false,
		CreatedBy:        userID,
		CreatedAt:        time.Now().UTC(),
	}

	key := storage.UploadKey(serviceID, up.ID)
	if err := s.contacts.Upload(ctx, key, []byte(text), "text/csv", up.Metadata()); err != nil {
		return nil, err
	}

	s.logger.Info("contact list staged", "service_id", serviceID, "upload_id", up.ID, "rows", up.RowCount)
	return up, nil
}

// Validate checks a staged upload against the selected template and the
// service row limit, and marks it valid in the object metadata on success.
func (s *Service) Validate(ctx context.Context, serviceID, uploadID string, tmpl *model.Template, rowLimit int) (*model.Upload, error) {
	key := storage.UploadKey(serviceID, uploadID)
	payload, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}

	lines := rowcache.SplitLines(string(payload))
	if len(lines) < 2 {
		return nil, apperrors.NewValidation("the file contains no rows")
	}
	rowCount := len(lines) - 1
	if rowLimit > 0 && rowCount > rowLimit {
		return nil, apperrors.NewValidation(
			fmt.Sprintf("the file has %d rows, more than the limit of %d messages", rowCount, rowLimit))
	}

	columns := parseHeader(lines[0])
	if err := checkRequiredColumn(columns, tmpl.Type); err != nil {
		return nil, err
	}
	if err := checkPlaceholders(columns, tmpl); err != nil {
		return nil, err
	}

	up, err := s.Get(ctx, serviceID, uploadID)
	if err != nil {
		return nil, err
	}
	up.Valid = true
	up.RowCount = rowCount
	if err := s.store.SetMetadata(ctx, key, up.Metadata()); err != nil {
		return nil, err
	}
	return up, nil
}

// Get rebuilds the upload record from its object metadata.
func (s *Service) Get(ctx context.Context, serviceID, uploadID string) (*model.Upload, error) {
	meta, err := s.store.GetMetadata(ctx, storage.UploadKey(serviceID, uploadID))
	if err != nil {
		return nil, err
	}
	return model.UploadFromMetadata(serviceID, uploadID, meta), nil
}

func parseHeader(header string) []string {
	cells := strings.Split(header, ",")
	for i, c := range cells {
		cells[i] = strings.ToLower(strings.TrimSpace(strings.Trim(c, `"`)))
	}
	return cells
}

func checkRequiredColumn(columns []string, templateType string) error {
	required := PhoneColumn
	if templateType == model.TemplateTypeEmail {
		required = EmailColumn
	}
	for _, col := range columns {
		if col == required {
			return nil
		}
	}
	return apperrors.NewValidation(fmt.Sprintf("the file is missing a column called ‘%s’", required))
}

func checkPlaceholders(columns []string, tmpl *model.Template) error {
	content := tmpl.Content
	if tmpl.Type == model.TemplateTypeEmail {
		content = tmpl.Subject + "\n" + tmpl.Content
	}

	var missing []string
	for _, name := range template.Placeholders(content) {
		found := false
		for _, col := range columns {
			if strings.EqualFold(col, name) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidation(
			fmt.Sprintf("the file is missing a column for %s", strings.Join(missing, ", ")))
	}
	return nil
}
