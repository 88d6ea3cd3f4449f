package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormLifecycleGuards(t *testing.T) {
	f := &Form{Status: StatusDraft}
	assert.True(t, f.CanBeEdited())
	assert.False(t, f.CanBeReviewed())

	f.Status = StatusCompleted
	assert.False(t, f.CanBeEdited())
	assert.True(t, f.CanBeReviewed())

	// Rejection re-opens the correction loop.
	f.Status = StatusRejected
	assert.True(t, f.CanBeEdited())
	assert.False(t, f.CanBeReviewed())

	f.Status = StatusReviewed
	assert.False(t, f.CanBeEdited())
	assert.False(t, f.CanBeReviewed())

	f.Status = StatusArchived
	assert.False(t, f.CanBeEdited())
	assert.False(t, f.CanBeReviewed())
}

func TestFormNumber(t *testing.T) {
	day := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "TEMP-20260309-0001", FormNumber(day, 1))
	assert.Equal(t, "TEMP-20260309-0002", FormNumber(day, 2))

	next := day.AddDate(0, 0, 1)
	assert.Equal(t, "TEMP-20260310-0001", FormNumber(next, 1))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusDraft, StatusCompleted, StatusReviewed, StatusRejected, StatusArchived} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("PENDING"))
	assert.False(t, ValidStatus(""))
}
