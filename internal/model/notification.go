package model

import "time"

// Notification lifecycle statuses as reported by the notifications API.
const (
	NotificationRequested        = "requested"
	NotificationCreated          = "created"
	NotificationPending          = "pending"
	NotificationSending          = "sending"
	NotificationDelivered        = "delivered"
	NotificationSent             = "sent"
	NotificationFailed           = "failed"
	NotificationTemporaryFailure = "temporary-failure"
	NotificationPermanentFailure = "permanent-failure"
	NotificationTechnicalFailure = "technical-failure"
	NotificationValidationFailed = "validation-failed"
	NotificationCancelled        = "cancelled"
)

// Aggregated status groups used by list filters and the job progress view.
var (
	SendingStatuses   = []string{NotificationCreated, NotificationPending, NotificationSending}
	DeliveredStatuses = []string{NotificationDelivered, NotificationSent}
	FailedStatuses    = []string{
		NotificationFailed,
		NotificationTemporaryFailure,
		NotificationPermanentFailure,
		NotificationTechnicalFailure,
		NotificationValidationFailed,
	}
)

var statusGroups = map[string][]string{
	"sending":   SendingStatuses,
	"delivered": DeliveredStatuses,
	"failed":    FailedStatuses,
}

// ExpandStatuses translates aggregate filter values (sending, delivered,
// failed) into the underlying API statuses. Unrecognised values pass through
// untouched so concrete statuses can be filtered on directly.
func ExpandStatuses(filters []string) []string {
	var out []string
	for _, f := range filters {
		if group, ok := statusGroups[f]; ok {
			out = append(out, group...)
			continue
		}
		out = append(out, f)
	}
	return out
}

// StatusGroup returns the aggregate bucket for a concrete notification status.
func StatusGroup(status string) string {
	for name, group := range statusGroups {
		for _, s := range group {
			if s == status {
				return name
			}
		}
	}
	return ""
}

type Notification struct {
	ID              string            `json:"id"`
	To              string            `json:"to"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	SentAt          *time.Time        `json:"sent_at,omitempty"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
	TemplateType    string            `json:"template_type"`
	JobRowNumber    int               `json:"job_row_number"`
	Template        Template          `json:"template"`
	CreatedBy       string            `json:"created_by,omitempty"`
	JobFileName     string            `json:"job_file_name,omitempty"`
}

// NotificationPage is one page of the notifications listing as returned by
// the API.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	PageSize      int            `json:"page_size"`
	Links         PageLinks      `json:"links"`
}

type PageLinks struct {
	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`
}
