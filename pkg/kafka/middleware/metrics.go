package kafka_middleware

import (
	"context"

	"medibuddy/pkg/kafka"
	"medibuddy/pkg/metrics"
)

// MetricsProducerMiddleware counts publish results per event type.
func MetricsProducerMiddleware(collector *metrics.Collector) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		collector.ObserveEvent(msg.GetEventType(), err)
		return err
	}
}
