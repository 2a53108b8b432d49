package config

import (
	"time"

	"medibuddy/pkg/model"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medibuddy"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoTransactions = false

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTTTL = 7 * 24 * time.Hour

	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 20

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultEventsEnabled = false
	DefaultEventsTopic   = "appointments.events"

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultClinicTimeZone            = "UTC"
	DefaultSlotIntervalMin           = 30
	DefaultAvailabilityHorizonDays   = 7
	DefaultAppointmentDurationMin    = model.DefaultDurationMin
	DefaultCancellationCutoff        = 24 * time.Hour
	DefaultDefaultSchedule           = "Mon-Fri 09:00-17:00"
	DefaultSlotStrictOverlap         = false
	DefaultEnforceAvailabilityWindow = true

	DefaultPaginationLimit = 100
)
