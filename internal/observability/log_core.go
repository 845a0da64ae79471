package observability

import (
	"context"
	"fmt"
	"sort"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

const (
	logInstrumentation = "inhouse-league/internal/platform/logging"
	maxLogValueDepth   = 3
)

// quietPaths are request logs not worth exporting.
var quietPaths = map[string]struct{}{
	"/healthz":      {},
	"/docs":         {},
	"/openapi.yaml": {},
}

// logCore exports zap entries as OpenTelemetry log records. The trace_id and
// span_id fields written by the logging package are turned back into a span
// context so records correlate with their traces.
type logCore struct {
	zapcore.LevelEnabler
	logger otellog.Logger
	fields []zapcore.Field
}

func newLogCore(logger otellog.Logger, level zapcore.LevelEnabler) *logCore {
	return &logCore{LevelEnabler: level, logger: logger}
}

func (c *logCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &logCore{LevelEnabler: c.LevelEnabler, logger: c.logger, fields: merged}
}

func (c *logCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *logCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if skipExport(entry.Message, enc.Fields) {
		return nil
	}

	ctx := spanContextFrom(enc.Fields)
	severity := toSeverity(entry.Level)
	if !c.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: entry.Message}) {
		return nil
	}

	var record otellog.Record
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(time.Now().UTC())
	record.SetSeverity(severity)
	record.SetSeverityText(entry.Level.CapitalString())
	record.SetEventName(entry.Message)
	record.SetBody(otellog.StringValue(entry.Message))
	if entry.LoggerName != "" {
		record.AddAttributes(otellog.String("logger", entry.LoggerName))
	}
	record.AddAttributes(recordAttributes(enc.Fields)...)

	c.logger.Emit(ctx, record)
	return nil
}

func (c *logCore) Sync() error {
	return nil
}

func skipExport(msg string, fields map[string]any) bool {
	if msg != "http request" {
		return false
	}
	path, _ := fields["path"].(string)
	_, quiet := quietPaths[path]
	return quiet
}

func spanContextFrom(fields map[string]any) context.Context {
	ctx := context.Background()
	rawTrace, _ := fields["trace_id"].(string)
	rawSpan, _ := fields["span_id"].(string)
	traceID, err := trace.TraceIDFromHex(rawTrace)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(rawSpan)
	if err != nil {
		return ctx
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}

func recordAttributes(fields map[string]any) []otellog.KeyValue {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "trace_id" || key == "span_id" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]otellog.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: toLogValue(fields[key], 0)})
	}
	return attrs
}

func toSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level <= zapcore.DebugLevel:
		return otellog.SeverityDebug
	case level == zapcore.InfoLevel:
		return otellog.SeverityInfo
	case level == zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level == zapcore.ErrorLevel:
		return otellog.SeverityError
	default:
		return otellog.SeverityFatal
	}
}

// toLogValue converts the value shapes produced by zapcore.MapObjectEncoder.
func toLogValue(value any, depth int) otellog.Value {
	if value == nil {
		return otellog.Value{}
	}
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}

	switch v := value.(type) {
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int64:
		return otellog.Int64Value(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case uint64:
		return otellog.StringValue(fmt.Sprint(v))
	case float64:
		return otellog.Float64Value(v)
	case float32:
		return otellog.Float64Value(float64(v))
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case []any:
		items := make([]otellog.Value, 0, len(v))
		for _, item := range v {
			items = append(items, toLogValue(item, depth+1))
		}
		return otellog.SliceValue(items...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, key := range keys {
			kvs = append(kvs, otellog.KeyValue{Key: key, Value: toLogValue(v[key], depth+1)})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(v))
	}
}
