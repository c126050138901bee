package services

import (
	"context"

	"storefront-service/internal/domain"
	"storefront-service/internal/events"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// endSpan records the outcome of an operation on its span and ends it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// publishAll delivers events collected during a committed unit.
// Publishing failures are logged; the stock change is already durable.
func publishAll(ctx context.Context, publisher events.EventPublisher, logger *zap.Logger, pending []interface{}) {
	for _, event := range pending {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn("Failed to publish event",
				zap.String("event-type", events.EventType(event)),
				zap.String("key", events.PartitionKey(event)),
				zap.Error(err),
			)
		}
	}
}

// logFailure logs business outcomes at Warn and corrupt data or infrastructure failures at Error
func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch domain.KindOf(err) {
	case domain.KindDataIntegrity, "":
		logger.Error(msg, fields...)
	default:
		logger.Warn(msg, fields...)
	}
}
