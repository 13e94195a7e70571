package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// KvsAdapter keeps every collection as one JSON array stored under
// <prefix><collection>. Elements have the same snake_case shape as relational
// rows but carry native JSON values.
type KvsAdapter struct {
	store  kvs.Store
	prefix string
	logger ectologger.Logger

	// serialises read-modify-write of a bucket
	mu sync.Mutex
}

func NewKvsAdapter(store kvs.Store, keyPrefix string, logger ectologger.Logger) *KvsAdapter {
	return &KvsAdapter{
		store:  store,
		prefix: keyPrefix,
		logger: logger,
	}
}

func (a *KvsAdapter) Mode() Mode {
	return ModeFallback
}

// Key returns the bucket key of a collection
func (a *KvsAdapter) Key(c *Collection) string {
	return a.prefix + c.Name
}

// Seed writes an empty bucket for every collection that has none
func (a *KvsAdapter) Seed(ctx context.Context, collections ...*Collection) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range collections {
		exists, err := a.store.Exists(ctx, a.Key(c))
		if err != nil {
			return errors.Wrapf(err, "failed to check bucket %s", c.Name)
		}
		if exists {
			continue
		}
		if err := a.store.Set(ctx, a.Key(c), "[]"); err != nil {
			return errors.Wrapf(err, "failed to seed bucket %s", c.Name)
		}
		a.logger.WithContext(ctx).Debugf("Seeded empty bucket %s", a.Key(c))
	}
	return nil
}

func (a *KvsAdapter) Insert(ctx context.Context, c *Collection, row Row) error {
	ctx, span := tracing.StartSpan(ctx, "KvsAdapter.Insert")
	defer span.End()

	cols, vals, err := c.values(row, encodeDoc)
	if err != nil {
		return err
	}
	doc := make(map[string]any, len(cols))
	for i, col := range cols {
		doc[col] = vals[i]
	}
	id, _ := doc["id"].(string)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s document", c.Name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, c)
	if err != nil {
		return err
	}
	if indexOf(items, id) >= 0 {
		return errors.Wrapf(ErrDuplicateKey, "%s id %s", c.Name, id)
	}

	return a.save(ctx, c, append(items, encoded))
}

func (a *KvsAdapter) Select(ctx context.Context, c *Collection, where Criteria) ([]Row, error) {
	ctx, span := tracing.StartSpan(ctx, "KvsAdapter.Select")
	defer span.End()

	cols, vals, err := c.criteria(where)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	items, err := a.load(ctx, c)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(items))
	for _, row := range a.decodeAll(ctx, c, items) {
		if matches(row, cols, vals) {
			rows = append(rows, row)
		}
	}

	// same order as the relational path: created_at desc, then id
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].createdAt(), rows[j].createdAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		idi, _ := rows[i]["id"].(string)
		idj, _ := rows[j]["id"].(string)
		return idi < idj
	})
	return rows, nil
}

func (a *KvsAdapter) Get(ctx context.Context, c *Collection, id string) (Row, error) {
	ctx, span := tracing.StartSpan(ctx, "KvsAdapter.Get")
	defer span.End()

	a.mu.Lock()
	items, err := a.load(ctx, c)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	i := indexOf(items, id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s id %s", c.Name, id)
	}
	row, err := decodeDocument(c, items[i])
	if err != nil {
		a.skipped(ctx, c, id, err)
		return nil, errors.Wrapf(ErrNotFound, "%s id %s", c.Name, id)
	}
	return row, nil
}

func (a *KvsAdapter) Update(ctx context.Context, c *Collection, id string, fields Row) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "KvsAdapter.Update")
	defer span.End()

	cols, vals, err := c.assignments(fields, encodeDoc)
	if err != nil {
		return false, err
	}
	if len(cols) == 0 {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, c)
	if err != nil {
		return false, err
	}
	i := indexOf(items, id)
	if i < 0 {
		return false, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(items[i], &doc); err != nil {
		return false, errors.Wrapf(err, "failed to decode %s document %s", c.Name, id)
	}
	for j, col := range cols {
		b, err := json.Marshal(vals[j])
		if err != nil {
			return false, errors.Wrapf(err, "failed to encode %s.%s", c.Name, col)
		}
		doc[col] = b
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return false, errors.Wrapf(err, "failed to encode %s document", c.Name)
	}
	items[i] = encoded

	return true, a.save(ctx, c, items)
}

func (a *KvsAdapter) Delete(ctx context.Context, c *Collection, id string) error {
	ctx, span := tracing.StartSpan(ctx, "KvsAdapter.Delete")
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, c)
	if err != nil {
		return err
	}

	kept := items[:0]
	removed := false
	for _, item := range items {
		if documentID(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return nil
	}
	return a.save(ctx, c, kept)
}

// Close leaves the medium open; it is owned by whoever created it
func (a *KvsAdapter) Close() error {
	return nil
}

// load reads the raw elements of a bucket. A missing bucket is empty; a bucket
// that is not a JSON array is logged and read as empty.
func (a *KvsAdapter) load(ctx context.Context, c *Collection) ([]json.RawMessage, error) {
	raw, err := a.store.Get(ctx, a.Key(c))
	if errors.Is(err, kvs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read bucket %s", c.Name)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		metrics.SkippedRecordsTotal.WithLabelValues(c.Name, string(ModeFallback)).Inc()
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"bucket": a.Key(c),
		}).Error("Bucket does not hold a JSON array, reading it as empty")
		return nil, nil
	}
	return items, nil
}

func (a *KvsAdapter) save(ctx context.Context, c *Collection, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return errors.Wrapf(err, "failed to encode bucket %s", c.Name)
	}
	if err := a.store.Set(ctx, a.Key(c), string(b)); err != nil {
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"bucket": a.Key(c),
		}).Error("Failed to write bucket")
		return errors.Wrapf(err, "failed to write bucket %s", c.Name)
	}
	return nil
}

func (a *KvsAdapter) decodeAll(ctx context.Context, c *Collection, items []json.RawMessage) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row, err := decodeDocument(c, item)
		if err != nil {
			a.skipped(ctx, c, documentID(item), err)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (a *KvsAdapter) skipped(ctx context.Context, c *Collection, id string, err error) {
	metrics.SkippedRecordsTotal.WithLabelValues(c.Name, string(ModeFallback)).Inc()
	a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"bucket": a.Key(c),
		"id":     id,
	}).Warn("Skipping malformed document")
}

func decodeDocument(c *Collection, item json.RawMessage) (Row, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return nil, errors.Wrap(errMalformed, err.Error())
	}
	row := make(Row, len(fields))
	for _, col := range c.Columns {
		v, err := decodeDoc(col.Kind, fields[col.Name])
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", col.Name)
		}
		if v != nil {
			row[col.Name] = v
		}
	}
	return row, nil
}

func documentID(item json.RawMessage) string {
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(item, &doc); err != nil {
		return ""
	}
	return doc.ID
}

func indexOf(items []json.RawMessage, id string) int {
	for i, item := range items {
		if documentID(item) == id {
			return i
		}
	}
	return -1
}
