package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadKey(t *testing.T) {
	key := UploadKey("21b399d1", "f2a0eff4")
	assert.Equal(t, "service-21b399d1-notify/f2a0eff4.csv", key)
}

func TestParseUploadKey(t *testing.T) {
	serviceID, uploadID, ok := ParseUploadKey("service-21b399d1-notify/f2a0eff4.csv")
	assert.True(t, ok)
	assert.Equal(t, "21b399d1", serviceID)
	assert.Equal(t, "f2a0eff4", uploadID)

	for _, key := range []string{
		"service-21b399d1-notify/f2a0eff4.txt",
		"21b399d1/f2a0eff4.csv",
		"service--notify/f2a0eff4.csv",
		"service-21b399d1-notify/.csv",
		"7-day-report",
	} {
		_, _, ok := ParseUploadKey(key)
		assert.False(t, ok, "expected %q to be rejected", key)
	}
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "1-day-report", ReportKey(1))
	assert.Equal(t, "7-day-report", ReportKey(7))
}

func TestTempUploadPrefix(t *testing.T) {
	assert.Equal(t, "temp-user-1_", TempUploadPrefix("user-1"))
}
