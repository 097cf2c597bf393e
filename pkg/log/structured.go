package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID tags ctx so every tracer built from it carries id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// StructuredLogger emits one record per operation step, keyed by operation name.
type StructuredLogger struct {
	name string
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *ContextLogger {
	var fields []zap.Field
	if id := CorrelationID(ctx); id != "" {
		fields = append(fields, zap.String("correlation_id", id))
	}
	return &ContextLogger{name: l.name, fields: fields}
}

type ContextLogger struct {
	name   string
	fields []zap.Field
}

func (c *ContextLogger) Operation(op string) *OperationBuilder {
	fields := make([]zap.Field, 0, len(c.fields)+4)
	fields = append(fields, c.fields...)
	return &OperationBuilder{name: c.name, op: op, fields: fields}
}

type OperationBuilder struct {
	name   string
	op     string
	fields []zap.Field
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, zap.Any(key, value))
	return b
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithUint(key string, value uint) *OperationBuilder {
	b.fields = append(b.fields, zap.Uint(key, value))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *OperationBuilder) Build() *Tracer {
	return &Tracer{name: b.name, op: b.op, fields: b.fields, start: time.Now()}
}

// Tracer follows one invocation of an operation.
type Tracer struct {
	name   string
	op     string
	fields []zap.Field
	start  time.Time
}

func (t *Tracer) Step(step string) *Entry {
	return t.entry(zapcore.DebugLevel, "step", zap.String("step", step))
}

func (t *Tracer) Error(err error) *Entry {
	return t.entry(zapcore.ErrorLevel, "failed", zap.Error(err), zap.Duration("duration", time.Since(t.start)))
}

func (t *Tracer) Success() *Entry {
	return t.entry(zapcore.InfoLevel, "succeeded", zap.Duration("duration", time.Since(t.start)))
}

func (t *Tracer) entry(level zapcore.Level, outcome string, extra ...zap.Field) *Entry {
	fields := make([]zap.Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, zap.String("operation", t.op))
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	return &Entry{name: t.name, level: level, msg: t.op + " " + outcome, fields: fields}
}

// Entry is a single record. Nothing is written until Log is called.
type Entry struct {
	name   string
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *Entry) WithParam(key string, value any) *Entry {
	e.fields = append(e.fields, zap.Any(key, value))
	return e
}

func (e *Entry) WithString(key, value string) *Entry {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Entry) WithInt(key string, value int) *Entry {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Entry) WithBool(key string, value bool) *Entry {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *Entry) Log() {
	logger := zap.L().Named(e.name)
	if ce := logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
