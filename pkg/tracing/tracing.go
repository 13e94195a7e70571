// Package tracing wraps the process tracer. Until SetTracer is called every
// span is the no-op span already in the context.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to storage spans
const (
	AttrCollection = attribute.Key("gestao.storage.collection")
	AttrOperation  = attribute.Key("gestao.storage.operation")
	AttrBackend    = attribute.Key("gestao.storage.backend")
	AttrRecordID   = attribute.Key("gestao.storage.record_id")
)

var tracer trace.Tracer

func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a child span of ctx
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// StartStorageSpan starts a "storage.<operation>" span tagged with the
// collection and backend. id is omitted when empty.
func StartStorageSpan(ctx context.Context, collection, operation, backend, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		AttrCollection.String(collection),
		AttrOperation.String(operation),
		AttrBackend.String(backend),
	}
	if id != "" {
		attrs = append(attrs, AttrRecordID.String(id))
	}
	return StartSpan(ctx, "storage."+operation, attrs...)
}

// RecordError marks the span as failed. nil spans and errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the id of the recording span in ctx, or "" when there is none
func GetTraceID(ctx context.Context) string {
	if tracer == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
