package kafka

import (
	"context"

	"lyrasnap/internal/domain/options"
)

// Publisher is the part of Producer the report publisher needs
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Compile-time check
var _ options.ReportPublisher = (*ReportPublisher)(nil)

// ReportPublisher announces finished snapshot runs
type ReportPublisher struct {
	producer Publisher
	topic    string
}

// NewReportPublisher creates a publisher writing to topic, or the default snapshot topic when empty
func NewReportPublisher(producer Publisher, topic string) *ReportPublisher {
	if topic == "" {
		topic = TopicOptionsSnapshots
	}
	return &ReportPublisher{producer: producer, topic: topic}
}

// PublishReport sends the report keyed by currency
func (p *ReportPublisher) PublishReport(ctx context.Context, report *options.Report) error {
	return p.producer.Publish(ctx, p.topic, report.Currency, report)
}
