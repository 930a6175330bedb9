package model

import (
	"strconv"
	"time"
)

// Metadata keys attached to staged CSV objects.
const (
	MetaOriginalFileName = "original_file_name"
	MetaRowCount         = "row_count"
	MetaTemplateType     = "template_type"
	MetaValid            = "valid"
	MetaCreatedBy        = "created_by"
)

// Template types
const (
	TemplateTypeSMS   = "sms"
	TemplateTypeEmail = "email"
)

// Upload describes a CSV file staged in object storage prior to becoming a
// job. The fields are persisted as user-defined object metadata.
type Upload struct {
	ServiceID        string
	ID               string
	OriginalFileName string
	RowCount         int
	TemplateType     string
	Valid            bool
	CreatedBy        string
	CreatedAt        time.Time
}

// Metadata flattens the upload fields into object-store user metadata.
func (u *Upload) Metadata() map[string]string {
	return map[string]string{
		MetaOriginalFileName: u.OriginalFileName,
		MetaRowCount:         strconv.Itoa(u.RowCount),
		MetaTemplateType:     u.TemplateType,
		MetaValid:            strconv.FormatBool(u.Valid),
		MetaCreatedBy:        u.CreatedBy,
	}
}

// UploadFromMetadata rebuilds an Upload from object-store user metadata.
// Missing or malformed values yield zero fields rather than errors; the
// valid flag only turns true on an explicit "true".
func UploadFromMetadata(serviceID, uploadID string, meta map[string]string) *Upload {
	rowCount, _ := strconv.Atoi(meta[MetaRowCount])
	return &Upload{
		ServiceID:        serviceID,
		ID:               uploadID,
		OriginalFileName: meta[MetaOriginalFileName],
		RowCount:         rowCount,
		TemplateType:     meta[MetaTemplateType],
		Valid:            meta[MetaValid] == "true",
		CreatedBy:        meta[MetaCreatedBy],
	}
}
