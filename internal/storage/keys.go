package storage

import (
	"fmt"
	"strings"
)

// Object key patterns and helper functions.

// UploadKey constructs the object key for a staged CSV upload.
func UploadKey(serviceID, uploadID string) string {
	return fmt.Sprintf("service-%s-notify/%s.csv", serviceID, uploadID)
}

// ParseUploadKey extracts the service and upload ids from an upload key.
func ParseUploadKey(key string) (serviceID, uploadID string, ok bool) {
	prefix, file, found := strings.Cut(key, "/")
	if !found || !strings.HasSuffix(file, ".csv") {
		return "", "", false
	}
	if !strings.HasPrefix(prefix, "service-") || !strings.HasSuffix(prefix, "-notify") {
		return "", "", false
	}
	serviceID = strings.TrimSuffix(strings.TrimPrefix(prefix, "service-"), "-notify")
	uploadID = strings.TrimSuffix(file, ".csv")
	if serviceID == "" || uploadID == "" {
		return "", "", false
	}
	return serviceID, uploadID, true
}

// ReportKey constructs the key of a prebuilt service report for a retention
// window of the given number of days.
func ReportKey(days int) string {
	return fmt.Sprintf("%d-day-report", days)
}

// TempUploadPrefix is the user-scoped prefix for temporary logo uploads,
// allowing bulk deletion on logout or cancel.
func TempUploadPrefix(userID string) string {
	return fmt.Sprintf("temp-%s_", userID)
}
