package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "deskbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultOfficeAdminOnly = false

	DefaultEventsEnabled      = false
	DefaultBookingEventsTopic = "deskbook.bookings"
	DefaultBookingEventsDLQ   = "deskbook.bookings.dlq"
	DefaultActivityGroupID    = "deskbook-activity"

	DefaultPaginationLimit = 100

	// Secrets shorter than this are rejected by Validate.
	MinCursorSecretLength = 32
)
