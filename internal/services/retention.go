package services

import (
	"fmt"
	"time"
)

// BatchSize bounds every scheduled job to a window it can finish inside one
// scheduler execution step. A backlog larger than this drains across
// successive daily runs.
const BatchSize = 100

const day = 24 * time.Hour

// RetentionPolicy holds the static retention durations per entity class.
type RetentionPolicy struct {
	// MessageTTL is how long direct messages are kept.
	MessageTTL time.Duration
	// NotificationTTL is how long notifications are kept.
	NotificationTTL time.Duration
	// ActivityLogTTL is how long activity log entries are kept.
	ActivityLogTTL time.Duration
	// PostGracePeriod is how long a soft-deleted post survives before the
	// hard purge removes it together with its comment/vote tree.
	PostGracePeriod time.Duration
	// InactiveWindow is the inactivity span after which an agent is
	// anonymized.
	InactiveWindow time.Duration
	// ExportTTL is how long a completed data export stays downloadable.
	ExportTTL time.Duration
	// DeletionGracePeriod is the cancellable window between an account
	// deletion request and its execution.
	DeletionGracePeriod time.Duration
}

// DefaultRetentionPolicy returns the platform's mandated retention windows.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MessageTTL:          90 * day,
		NotificationTTL:     30 * day,
		ActivityLogTTL:      365 * day,
		PostGracePeriod:     30 * day,
		InactiveWindow:      730 * day,
		ExportTTL:           7 * day,
		DeletionGracePeriod: 30 * day,
	}
}

// policyLabel renders a duration as the retention_policy_applied audit value.
func policyLabel(d time.Duration) string {
	return fmt.Sprintf("%d_days", int(d/day))
}
