package storage

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// RelationalAdapter stores collections as tables of a relational engine. All
// calls share the single connection handle it was opened with.
type RelationalAdapter struct {
	db       database.DB
	builders database.Builders
	logger   ectologger.Logger
}

func NewRelationalAdapter(db database.DB, logger ectologger.Logger) *RelationalAdapter {
	return &RelationalAdapter{
		db:       db,
		builders: database.NewBuilders(db.DriverName()),
		logger:   logger,
	}
}

func (a *RelationalAdapter) Mode() Mode {
	return ModeRelational
}

// DB returns the connection handle
func (a *RelationalAdapter) DB() database.DB {
	return a.db
}

func (a *RelationalAdapter) Insert(ctx context.Context, c *Collection, row Row) error {
	ctx, span := tracing.StartSpan(ctx, "RelationalAdapter.Insert")
	defer span.End()

	cols, vals, err := c.values(row, encodeSQL)
	if err != nil {
		return err
	}

	ib := a.builders.Insert()
	ib.InsertInto(c.Name).Cols(cols...).Values(vals...)
	query, args := ib.Build()

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicateKey, "%s id %v", c.Name, row["id"])
		}
		tracing.RecordError(span, err)
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table": c.Name,
		}).Error("Failed to insert row")
		return errors.Wrapf(err, "failed to insert into %s", c.Name)
	}
	return nil
}

func (a *RelationalAdapter) Select(ctx context.Context, c *Collection, where Criteria) ([]Row, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationalAdapter.Select")
	defer span.End()

	cols, vals, err := c.criteria(where)
	if err != nil {
		return nil, err
	}

	sb := a.builders.Select()
	sb.Select(c.ColumnNames()...).From(c.Name)
	for i, col := range cols {
		kind, _ := c.Kind(col)
		sb.Where(sb.Equal(col, encodeSQL(kind, vals[i])))
	}
	sb.OrderBy("created_at DESC", "id ASC")

	query, args := sb.Build()
	return a.query(ctx, c, query, args...)
}

func (a *RelationalAdapter) Get(ctx context.Context, c *Collection, id string) (Row, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationalAdapter.Get")
	defer span.End()

	sb := a.builders.Select()
	sb.Select(c.ColumnNames()...).From(c.Name).Where(sb.Equal("id", id)).Limit(1)
	query, args := sb.Build()

	rows, err := a.query(ctx, c, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s id %s", c.Name, id)
	}
	return rows[0], nil
}

func (a *RelationalAdapter) Update(ctx context.Context, c *Collection, id string, fields Row) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationalAdapter.Update")
	defer span.End()

	cols, vals, err := c.assignments(fields, encodeSQL)
	if err != nil {
		return false, err
	}
	if len(cols) == 0 {
		return false, nil
	}

	ub := a.builders.Update()
	ub.Update(c.Name)
	assignments := make([]string, 0, len(cols))
	for i, col := range cols {
		assignments = append(assignments, ub.Assign(col, vals[i]))
	}
	ub.Set(assignments...).Where(ub.Equal("id", id))
	query, args := ub.Build()

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table": c.Name,
			"id":    id,
		}).Error("Failed to update row")
		return false, errors.Wrapf(err, "failed to update %s", c.Name)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return n > 0, nil
}

func (a *RelationalAdapter) Delete(ctx context.Context, c *Collection, id string) error {
	ctx, span := tracing.StartSpan(ctx, "RelationalAdapter.Delete")
	defer span.End()

	db := a.builders.Delete()
	db.DeleteFrom(c.Name).Where(db.Equal("id", id))
	query, args := db.Build()

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table": c.Name,
			"id":    id,
		}).Error("Failed to delete row")
		return errors.Wrapf(err, "failed to delete from %s", c.Name)
	}
	return nil
}

func (a *RelationalAdapter) Close() error {
	return a.db.Close()
}

// query scans every row before decoding so the shared connection is released
// early. Rows holding malformed values are skipped and logged.
func (a *RelationalAdapter) query(ctx context.Context, c *Collection, query string, args ...any) ([]Row, error) {
	rows, err := a.db.QueryxContext(ctx, query, args...)
	if err != nil {
		a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"table": c.Name,
		}).Error("Failed to query rows")
		return nil, errors.Wrapf(err, "failed to query %s", c.Name)
	}

	var scanned []map[string]any
	for rows.Next() {
		m := make(map[string]any, len(c.Columns))
		if err := rows.MapScan(m); err != nil {
			_ = rows.Close()
			return nil, errors.Wrapf(err, "failed to scan %s row", c.Name)
		}
		scanned = append(scanned, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, errors.Wrapf(err, "failed to iterate %s rows", c.Name)
	}
	_ = rows.Close()

	result := make([]Row, 0, len(scanned))
	for _, m := range scanned {
		row, err := decodeScanned(c, m)
		if err != nil {
			metrics.SkippedRecordsTotal.WithLabelValues(c.Name, string(ModeRelational)).Inc()
			a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"table": c.Name,
				"id":    fmt.Sprint(m["id"]),
			}).Warn("Skipping row with malformed stored value")
			continue
		}
		result = append(result, row)
	}
	return result, nil
}

func decodeScanned(c *Collection, m map[string]any) (Row, error) {
	row := make(Row, len(m))
	for _, col := range c.Columns {
		v, err := decodeSQL(col.Kind, m[col.Name])
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		if v != nil {
			row[col.Name] = v
		}
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
