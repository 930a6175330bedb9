package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandStatuses(t *testing.T) {
	expanded := ExpandStatuses([]string{"sending"})
	assert.Equal(t, []string{NotificationCreated, NotificationPending, NotificationSending}, expanded)

	// Concrete statuses pass through untouched.
	assert.Equal(t, []string{NotificationDelivered}, ExpandStatuses([]string{NotificationDelivered}))

	mixed := ExpandStatuses([]string{"failed", NotificationSending})
	assert.Contains(t, mixed, NotificationTechnicalFailure)
	assert.Contains(t, mixed, NotificationSending)
}

func TestStatusGroup(t *testing.T) {
	assert.Equal(t, "sending", StatusGroup(NotificationPending))
	assert.Equal(t, "delivered", StatusGroup(NotificationSent))
	assert.Equal(t, "failed", StatusGroup(NotificationValidationFailed))
	assert.Equal(t, "", StatusGroup(NotificationRequested))
	assert.Equal(t, "", StatusGroup("bogus"))
}
