package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRepair(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	daysAgo := func(days int) time.Time {
		return now.AddDate(0, 0, -days)
	}

	tests := []struct {
		name        string
		completedAt time.Time
		warningSent bool
		want        repairAction
	}{
		{"fresh completion", daysAgo(1), false, actionNone},
		{"22 days, no warning yet", daysAgo(22), false, actionNone},
		{"22 days and 23 hours still counts as 22", daysAgo(23).Add(time.Hour), false, actionNone},
		{"23 days triggers warning", daysAgo(23), false, actionWarn},
		{"23 days, warning already sent", daysAgo(23), true, actionNone},
		{"29 days, warning already sent", daysAgo(29), true, actionNone},
		{"29 days, warning missed earlier", daysAgo(29), false, actionWarn},
		{"30 days forfeits", daysAgo(30), false, actionForfeit},
		{"30 days forfeits even after warning", daysAgo(30), true, actionForfeit},
		{"long overdue", daysAgo(90), true, actionForfeit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyRepair(tt.completedAt, tt.warningSent, now))
		})
	}
}

// Running the sweep twice over the same repair must not warn twice: the
// first pass stamps forfeiture_warning_sent_at, which the second pass sees.
func TestClassifyRepairWarningIsIdempotent(t *testing.T) {
	now := time.Now()
	completedAt := now.AddDate(0, 0, -25)

	assert.Equal(t, actionWarn, classifyRepair(completedAt, false, now))
	assert.Equal(t, actionNone, classifyRepair(completedAt, true, now))
}

func TestOrHelpers(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "356938035643809", orNA("356938035643809"))
	assert.Equal(t, "Non specificata", orDefault("", "Non specificata"))
	assert.Equal(t, "Buona", orDefault("Buona", "Non specificata"))
}
