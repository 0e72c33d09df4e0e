package constants

import (
	"time"
)

// Booking rules
const (
	MaxBookingNights = 90
	MinBookingNights = 1
)

// Background maintenance
const (
	// Messages older than this are purged by the daily cleanup job.
	MessageRetention = 365 * 24 * time.Hour

	// Consumer-side retry ceiling for transient handler failures.
	EventMaxRetries = 3
)

// Cron schedules (robfig/cron standard 5-field specs)
const (
	CompletionSweepSpec     = "0 * * * *"    // hourly
	MessageCleanupSpec      = "30 0 * * *"   // daily at 00:30
	AvailabilityRefreshSpec = "*/15 * * * *" // every 15 minutes
	CheckInReminderSpec     = "0 8 * * *"    // daily at 08:00
)

// JWT
const (
	AccessTokenTTL = 24 * time.Hour
)

// Common concurrency conflict / row-version conflict messages
const (
	ErrMsgNoRowsUpdated             = "No rows updated"
	ErrMsgRowVersionConflictRefresh = "The booking has changed, please refresh"
)
