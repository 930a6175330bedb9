package model

// Service is the opaque tenant record fetched from the notifications API.
// Only the properties the admin core consults are projected here.
type Service struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Permissions  []string       `json:"permissions"`
	MessageLimit int            `json:"message_limit"`
	Retention    map[string]int `json:"data_retention_days_by_type,omitempty"`
}

// Template is the opaque message template record fetched from the API.
type Template struct {
	ID                    string `json:"id"`
	Version               int    `json:"version"`
	Type                  string `json:"template_type"`
	Name                  string `json:"name"`
	Subject               string `json:"subject,omitempty"`
	Content               string `json:"content"`
	RedactPersonalisation bool   `json:"redact_personalisation"`
}

// User identifies the signed-in platform user together with the permission
// sets granted per service. Authentication itself happens upstream; the core
// only consults this projection.
type User struct {
	ID          string              `json:"id"`
	Permissions map[string][]string `json:"permissions"`
}

// HasPermission reports whether the user holds the named permission for the
// given service, or is a platform admin.
func (u *User) HasPermission(serviceID, permission string) bool {
	for _, p := range u.Permissions["platform"] {
		if p == "platform_admin" {
			return true
		}
	}
	for _, p := range u.Permissions[serviceID] {
		if p == permission {
			return true
		}
	}
	return false
}
