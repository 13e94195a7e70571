package repositories

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

// NotFound returns a 404 HTTP error with a descriptive message
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// BadRequest returns a 400 HTTP error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// Repository provides common storage operations over the active backend
type Repository struct {
	store  *storage.Store
	logger ectologger.Logger
	now    func() time.Time
}

// NewRepository creates a new base repository
func NewRepository(store *storage.Store, logger ectologger.Logger) *Repository {
	return &Repository{store: store, logger: logger, now: time.Now}
}

// Store returns the storage store
func (r *Repository) Store() *storage.Store {
	return r.store
}

// SetClock replaces the time source used for createdAt/updatedAt
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Repository) timestamp() time.Time {
	return storage.Timestamp(r.now())
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (r *Repository) adapter(ctx context.Context) (storage.Adapter, error) {
	a, err := r.store.Adapter(ctx)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("storage is not available")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "storage is not available")
	}
	return a, nil
}

func (r *Repository) insert(ctx context.Context, c *storage.Collection, row storage.Row) error {
	a, err := r.adapter(ctx)
	if err != nil {
		return err
	}

	if err := a.Insert(ctx, c, row); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return httperror.NewHTTPErrorf(http.StatusConflict, "%s %v already exists", c.Name, row["id"])
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": c.Name,
			"id":         row["id"],
			"backend":    a.Mode(),
		}).Error("failed to insert record")
		return r.internal(err, "failed to create %s", c.Name)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      row["id"],
		"backend": a.Mode(),
	}).Debugf("Created %s", c.Name)
	return nil
}

func (r *Repository) get(ctx context.Context, c *storage.Collection, id string) (storage.Row, error) {
	a, err := r.adapter(ctx)
	if err != nil {
		return nil, err
	}

	row, err := a.Get(ctx, c, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "%s %s does not exist", c.Name, id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": c.Name,
			"id":         id,
		}).Error("failed to get record")
		return nil, r.internal(err, "failed to get %s", c.Name)
	}
	return row, nil
}

func (r *Repository) list(ctx context.Context, c *storage.Collection, where storage.Criteria) ([]storage.Row, error) {
	a, err := r.adapter(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := a.Select(ctx, c, where)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": c.Name,
		}).Error("failed to list records")
		return nil, r.internal(err, "failed to list %s", c.Name)
	}

	r.logger.WithContext(ctx).Debugf("Retrieved %d %s", len(rows), c.Name)
	return rows, nil
}

// update writes fields and refreshes updated_at. A missing id is a silent
// no-op.
func (r *Repository) update(ctx context.Context, c *storage.Collection, id string, fields storage.Row) error {
	a, err := r.adapter(ctx)
	if err != nil {
		return err
	}

	fields["updated_at"] = r.timestamp()
	matched, err := a.Update(ctx, c, id, fields)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": c.Name,
			"id":         id,
		}).Error("failed to update record")
		return r.internal(err, "failed to update %s", c.Name)
	}

	if !matched {
		r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Debugf("No %s matched update", c.Name)
		return nil
	}
	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Debugf("Updated %s", c.Name)
	return nil
}

func (r *Repository) delete(ctx context.Context, c *storage.Collection, id string) error {
	a, err := r.adapter(ctx)
	if err != nil {
		return err
	}

	if err := a.Delete(ctx, c, id); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"collection": c.Name,
			"id":         id,
		}).Error("failed to delete record")
		return r.internal(err, "failed to delete %s", c.Name)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Debugf("Deleted %s", c.Name)
	return nil
}

func (r *Repository) internal(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrUnknownColumn) {
		return BadRequest(err.Error())
	}
	return httperror.NewHTTPErrorf(http.StatusInternalServerError, format, args...)
}

// decodeRows maps rows to models, skipping and logging rows that fail to decode
func decodeRows[T any](ctx context.Context, r *Repository, c *storage.Collection, rows []storage.Row, decode func(storage.Row) (T, error)) []T {
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := decode(row)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"collection": c.Name,
				"id":         row["id"],
			}).Warn("Skipping record that failed to decode")
			continue
		}
		result = append(result, v)
	}
	return result
}
