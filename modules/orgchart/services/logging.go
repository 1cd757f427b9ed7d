package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/iota-uz/orgmatrix/pkg/composables"
)

var tracer = otel.Tracer("orgmatrix/orgchart")

func logWithFields(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	logger, ok := composables.TryUseLogger(ctx)
	if !ok {
		return
	}
	logger.WithFields(fields).Log(level, msg)
}

func maybeLogRejected(ctx context.Context, op string, err error) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		return
	}
	fields := logrus.Fields{
		"op":         op,
		"error_code": svcErr.Code,
		"error_kind": string(svcErr.Kind),
	}
	if svcErr.Entity != "" {
		fields["entity_type"] = string(svcErr.Entity)
		fields["entity_id"] = svcErr.EntityID
	}
	if requestID, ok := composables.UseRequestID(ctx); ok {
		fields["request_id"] = requestID
	}
	if ip, ok := composables.UseIP(ctx); ok && ip != "" {
		fields["client_ip"] = ip
	}
	if ua, ok := composables.UseUserAgent(ctx); ok && ua != "" {
		fields["user_agent"] = ua
	}
	level := logrus.InfoLevel
	if svcErr.Kind == ErrKindStoreFailure {
		level = logrus.ErrorLevel
	}
	logWithFields(ctx, level, "orgchart.mutation.rejected", fields)
}
