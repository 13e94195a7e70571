package storage

import (
	"context"
	"time"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/events"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// observedAdapter traces and records metrics for every call and publishes writes
type observedAdapter struct {
	Adapter
	bus *events.Bus
}

func observe(a Adapter, bus *events.Bus) Adapter {
	return &observedAdapter{Adapter: a, bus: bus}
}

func (o *observedAdapter) backend() string {
	return string(o.Mode())
}

func (o *observedAdapter) publish(ctx context.Context, c *Collection, op events.Operation, id string) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(ctx, events.Change{
		Collection: c.Name,
		Operation:  op,
		ID:         id,
		Backend:    o.backend(),
	})
}

func (o *observedAdapter) Insert(ctx context.Context, c *Collection, row Row) error {
	id, _ := row["id"].(string)
	ctx, span := tracing.StartStorageSpan(ctx, c.Name, "insert", o.backend(), id)
	defer span.End()

	start := time.Now()
	err := o.Adapter.Insert(ctx, c, row)
	metrics.ObserveStorage(c.Name, "insert", o.backend(), start, err)
	tracing.RecordError(span, err)
	if err == nil {
		o.publish(ctx, c, events.OperationInsert, id)
	}
	return err
}

func (o *observedAdapter) Select(ctx context.Context, c *Collection, where Criteria) ([]Row, error) {
	ctx, span := tracing.StartStorageSpan(ctx, c.Name, "select", o.backend(), "")
	defer span.End()

	start := time.Now()
	rows, err := o.Adapter.Select(ctx, c, where)
	metrics.ObserveStorage(c.Name, "select", o.backend(), start, err)
	tracing.RecordError(span, err)
	return rows, err
}

func (o *observedAdapter) Get(ctx context.Context, c *Collection, id string) (Row, error) {
	ctx, span := tracing.StartStorageSpan(ctx, c.Name, "get", o.backend(), id)
	defer span.End()

	start := time.Now()
	row, err := o.Adapter.Get(ctx, c, id)
	metrics.ObserveStorage(c.Name, "get", o.backend(), start, err)
	tracing.RecordError(span, err)
	return row, err
}

func (o *observedAdapter) Update(ctx context.Context, c *Collection, id string, fields Row) (bool, error) {
	ctx, span := tracing.StartStorageSpan(ctx, c.Name, "update", o.backend(), id)
	defer span.End()

	start := time.Now()
	matched, err := o.Adapter.Update(ctx, c, id, fields)
	metrics.ObserveStorage(c.Name, "update", o.backend(), start, err)
	tracing.RecordError(span, err)
	if err == nil && matched {
		o.publish(ctx, c, events.OperationUpdate, id)
	}
	return matched, err
}

func (o *observedAdapter) Delete(ctx context.Context, c *Collection, id string) error {
	ctx, span := tracing.StartStorageSpan(ctx, c.Name, "delete", o.backend(), id)
	defer span.End()

	start := time.Now()
	err := o.Adapter.Delete(ctx, c, id)
	metrics.ObserveStorage(c.Name, "delete", o.backend(), start, err)
	tracing.RecordError(span, err)
	if err == nil {
		o.publish(ctx, c, events.OperationDelete, id)
	}
	return err
}
