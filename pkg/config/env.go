package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoTransactions = "MONGO_TRANSACTIONS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"
	EnvJWTTTL    = "JWT_TTL"

	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"

	EnvEventsEnabled = "EVENTS_ENABLED"
	EnvEventsTopic   = "EVENTS_TOPIC"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvClinicTimeZone            = "CLINIC_TIME_ZONE"
	EnvSlotIntervalMin           = "SLOT_INTERVAL_MIN"
	EnvAvailabilityHorizonDays   = "AVAILABILITY_HORIZON_DAYS"
	EnvAppointmentDurationMin    = "APPOINTMENT_DURATION_MIN"
	EnvCancellationCutoff        = "CANCELLATION_CUTOFF"
	EnvDefaultSchedule           = "DEFAULT_SCHEDULE"
	EnvSlotStrictOverlap         = "SLOT_STRICT_OVERLAP"
	EnvEnforceAvailabilityWindow = "ENFORCE_AVAILABILITY_WINDOW"
)
