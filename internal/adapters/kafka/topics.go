package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicOptionsSnapshots carries one report per finished snapshot run, keyed by currency
	TopicOptionsSnapshots = "options.snapshots"
)
