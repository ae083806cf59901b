package kafka_config

import "time"

const (
	// Empty means event publishing is disabled.
	DefaultKafkaBrokers = ""

	DefaultBookingTopic    = "ptcms.bookings.events"
	DefaultBookingDLQTopic = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
)
