package tracer

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// fieldsDivisor is used to calculate initial capacity for OpenTelemetry fields.
const fieldsDivisor = 2

// NewTraceFromContext records the log line as an event on the span active in ctx
// and returns fields extended with traceID and spanID.
// Without an active span the fields are returned unchanged.
func NewTraceFromContext(ctx context.Context, severity string, msg string, fields ...any) []any {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return fields
	}

	attrs := make([]attribute.KeyValue, 0, len(fields)/fieldsDivisor+2)
	attrs = append(attrs,
		attribute.String("log.severity", severity),
		attribute.String("log.message", msg),
	)
	attrs = append(attrs, FieldsToOpenTelemetry(fields...)...)

	span.AddEvent("log."+severity, trace.WithAttributes(attrs...))

	result := make([]any, 0, len(fields)+4) //nolint:mnd // two extra pairs
	result = append(result, fields...)
	result = append(result,
		"traceID", span.SpanContext().TraceID().String(),
		"spanID", span.SpanContext().SpanID().String(),
	)

	return result
}

// FieldsToOpenTelemetry converts fields to OpenTelemetry attributes.
func FieldsToOpenTelemetry(fields ...any) []attribute.KeyValue {
	if len(fields) == 0 {
		return nil
	}

	openTelemetryFields := make([]attribute.KeyValue, 0, len(fields)/fieldsDivisor)

	// Process fields in pairs (key, value); slog.Attr takes a single slot
	for idx := 0; idx < len(fields); {
		if attr, ok := fields[idx].(slog.Attr); ok {
			openTelemetryFields = append(openTelemetryFields, toAttribute(attr.Key, attr.Value.Any()))
			idx++

			continue
		}

		if idx+1 >= len(fields) {
			break // Skip incomplete pairs
		}

		if key, ok := fields[idx].(string); ok {
			openTelemetryFields = append(openTelemetryFields, toAttribute(key, fields[idx+1]))
		}

		idx += 2
	}

	return openTelemetryFields
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch val := value.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int32:
		return attribute.Int(key, int(val))
	case int64:
		return attribute.Int64(key, val)
	case error:
		return attribute.String(key, val.Error())
	default:
		return attribute.String(key, toString(val))
	}
}

// toString converts any value to string.
func toString(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprintf("%v", v)
}
