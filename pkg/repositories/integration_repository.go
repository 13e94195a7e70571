package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// IntegrationRepository handles storage operations for integrations
type IntegrationRepository struct {
	*Repository
}

// NewIntegrationRepository creates a new integration repository
func NewIntegrationRepository(store *storage.Store, logger ectologger.Logger) *IntegrationRepository {
	return &IntegrationRepository{
		Repository: NewRepository(store, logger),
	}
}

// Create stores a new integration. An empty ID is generated.
func (r *IntegrationRepository) Create(ctx context.Context, integration models.Integration) (*models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Create")
	defer span.End()

	now := r.timestamp()
	integration.ID = newID(integration.ID)
	integration.CreatedAt = now
	integration.UpdatedAt = now
	integration.LastSync = timestampPtr(integration.LastSync)

	if err := r.insert(ctx, storage.Integrations, integrationToRow(integration)); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &integration, nil
}

// GetByID retrieves an integration by ID
func (r *IntegrationRepository) GetByID(ctx context.Context, id string) (*models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.GetByID")
	defer span.End()

	row, err := r.get(ctx, storage.Integrations, id)
	if err != nil {
		return nil, err
	}
	integration, err := integrationFromRow(row)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"integration_id": id,
		}).Warn("stored integration is malformed")
		return nil, NotFound("integration %s does not exist", id)
	}
	return &integration, nil
}

// List retrieves integrations newest first
func (r *IntegrationRepository) List(ctx context.Context, filter models.IntegrationFilter) ([]models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.List")
	defer span.End()

	where := storage.Criteria{}
	if filter.Type != "" {
		where["type"] = filter.Type
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}

	rows, err := r.list(ctx, storage.Integrations, where)
	if err != nil {
		return nil, err
	}
	return decodeRows(ctx, r.Repository, storage.Integrations, rows, integrationFromRow), nil
}

// Update applies a partial update. An empty patch writes nothing.
func (r *IntegrationRepository) Update(ctx context.Context, id string, patch models.IntegrationPatch) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Update")
	defer span.End()

	if patch.IsEmpty() {
		return nil
	}

	fields := storage.Row{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Type != nil {
		fields["type"] = *patch.Type
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Configuration != nil {
		fields["configuration"] = *patch.Configuration
	}
	if patch.LastSync != nil {
		fields["last_sync"] = *patch.LastSync
	}
	if patch.Metadata != nil {
		fields["metadata"] = *patch.Metadata
	}

	return r.update(ctx, storage.Integrations, id, fields)
}

// Delete removes an integration; a missing ID is not an error
func (r *IntegrationRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "IntegrationRepository.Delete")
	defer span.End()

	return r.delete(ctx, storage.Integrations, id)
}

func integrationToRow(i models.Integration) storage.Row {
	return storage.Row{
		"id":            i.ID,
		"name":          i.Name,
		"type":          i.Type,
		"status":        i.Status,
		"configuration": i.Configuration,
		"created_at":    i.CreatedAt,
		"updated_at":    i.UpdatedAt,
		"last_sync":     i.LastSync,
		"metadata":      i.Metadata,
	}
}

func integrationFromRow(row storage.Row) (models.Integration, error) {
	i := models.Integration{
		ID:        rowString(row, "id"),
		Name:      rowString(row, "name"),
		Type:      models.IntegrationType(rowString(row, "type")),
		Status:    models.IntegrationStatus(rowString(row, "status")),
		CreatedAt: rowTime(row, "created_at"),
		UpdatedAt: rowTime(row, "updated_at"),
		LastSync:  rowTimePtr(row, "last_sync"),
	}
	if err := rowJSON(row, "configuration", &i.Configuration); err != nil {
		return i, err
	}
	if err := rowJSON(row, "metadata", &i.Metadata); err != nil {
		return i, err
	}
	return i, nil
}
