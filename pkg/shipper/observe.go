package shipper

import (
	"context"
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// StartSpan starts a carrier span. A nil tracer yields a no-op span.
func StartSpan(ctx context.Context, tracer trace.Tracer, carrier, op string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, carrier+"."+op, trace.WithAttributes(attribute.String("carrier", carrier)))
}

// LogUnavailable records why a carrier produced no rate. Rejections by the
// carrier are logged at warn, everything else at error.
func LogUnavailable(ctx context.Context, logger *otelzap.Logger, span trace.Span, carrier string, err error, fields ...zap.Field) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields = append(fields, zap.String("carrier", carrier), zap.Bool("retryable", IsRetryable(err)), zap.Error(err))
	if errors.Is(err, ErrAuthenticationFailed) {
		logger.Ctx(ctx).Warn("carrier rejected credentials", fields...)
		return
	}
	if IsCarrierRejection(err) {
		logger.Ctx(ctx).Warn("carrier rejected rate request", fields...)
		return
	}
	logger.Ctx(ctx).Error("carrier rate request failed", fields...)
}
