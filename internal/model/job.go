package model

import "time"

// Job statuses as reported by the notifications API.
const (
	JobPending               = "pending"
	JobInProgress            = "in progress"
	JobFinished              = "finished"
	JobSendingLimitsExceeded = "sending limits exceeded"
	JobScheduled             = "scheduled"
	JobCancelled             = "cancelled"
	JobReadyToSend           = "ready to send"
	JobSentToDVLA            = "sent to dvla"
)

// Job is the admin UI's cached projection of an API-owned job.
type Job struct {
	ID                 string                  `json:"id"`
	ServiceID          string                  `json:"service"`
	TemplateID         string                  `json:"template"`
	TemplateVersion    int                     `json:"template_version"`
	TemplateType       string                  `json:"template_type"`
	TemplateName       string                  `json:"template_name"`
	OriginalFileName   string                  `json:"original_file_name"`
	NotificationCount  int                     `json:"notification_count"`
	Status             string                  `json:"job_status"`
	CreatedAt          time.Time               `json:"created_at"`
	ProcessingStarted  *time.Time              `json:"processing_started,omitempty"`
	ScheduledFor       *time.Time              `json:"scheduled_for,omitempty"`
	CreatedBy          string                  `json:"created_by,omitempty"`
	Statistics         []NotificationStatistic `json:"statistics,omitempty"`
}

// NotificationStatistic is a per-status count attached to a job projection.
type NotificationStatistic struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func (j *Job) IsCancelled() bool {
	return j.Status == JobCancelled
}

func (j *Job) IsFinished() bool {
	switch j.Status {
	case JobFinished, JobCancelled, JobSendingLimitsExceeded:
		return true
	}
	return false
}

// JobStatus is the minimal polling payload for a job. The serialized form
// carries exactly these five keys and stays under 200 bytes.
type JobStatus struct {
	SentCount    int  `json:"sent_count"`
	FailedCount  int  `json:"failed_count"`
	PendingCount int  `json:"pending_count"`
	TotalCount   int  `json:"total_count"`
	Finished     bool `json:"finished"`
}

// Progress is the per-job progress view shown on the job page.
type Progress struct {
	Sending   int    `json:"sending"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
	TimeLeft  string `json:"time_left"`
	Finished  bool   `json:"finished"`
}
