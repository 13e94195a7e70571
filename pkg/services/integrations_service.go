package services

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/events"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

type IntegrationRepository interface {
	Create(ctx context.Context, integration models.Integration) (*models.Integration, error)
	GetByID(ctx context.Context, id string) (*models.Integration, error)
	List(ctx context.Context, filter models.IntegrationFilter) ([]models.Integration, error)
	Update(ctx context.Context, id string, patch models.IntegrationPatch) error
	Delete(ctx context.Context, id string) error
}

// IntegrationsService serves integrations from a cached listing. The cache is
// dropped whenever the integrations collection changes or a backend activates.
type IntegrationsService struct {
	logger ectologger.Logger
	repo   IntegrationRepository
	now    func() time.Time

	mu          sync.Mutex
	cache       []models.Integration
	cached      bool
	generation  uint64
	unsubscribe func()
}

func NewIntegrationsService(repo IntegrationRepository, bus *events.Bus, logger ectologger.Logger) *IntegrationsService {
	s := &IntegrationsService{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
	if bus != nil {
		s.unsubscribe = bus.Subscribe(s.onChange)
	}
	return s
}

func (s *IntegrationsService) SetClock(now func() time.Time) {
	s.now = now
}

// Close stops listening for changes
func (s *IntegrationsService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *IntegrationsService) onChange(change events.Change) {
	if change.Operation != events.OperationActivate && change.Collection != storage.Integrations.Name {
		return
	}
	s.Invalidate()
}

// Invalidate drops the cached listing
func (s *IntegrationsService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.cached = false
	s.generation++
}

// List returns every integration newest first
func (s *IntegrationsService) List(ctx context.Context) ([]models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrationsService.List")
	defer span.End()

	s.mu.Lock()
	if s.cached {
		list := cloneIntegrations(s.cache)
		s.mu.Unlock()
		return list, nil
	}
	generation := s.generation
	s.mu.Unlock()

	list, err := s.repo.List(ctx, models.IntegrationFilter{})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	s.mu.Lock()
	// a change landed while loading; serve this result without caching it
	if generation == s.generation {
		s.cache = cloneIntegrations(list)
		s.cached = true
	}
	s.mu.Unlock()

	s.logger.WithContext(ctx).Debugf("Loaded %d integrations", len(list))
	return list, nil
}

func (s *IntegrationsService) ListByType(ctx context.Context, integrationType models.IntegrationType) ([]models.Integration, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ectolinq.Filter(list, func(i models.Integration) bool {
		return i.Type == integrationType
	}), nil
}

func (s *IntegrationsService) ListActive(ctx context.Context) ([]models.Integration, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return ectolinq.Filter(list, func(i models.Integration) bool {
		return i.Status == models.IntegrationStatusActive
	}), nil
}

func (s *IntegrationsService) Get(ctx context.Context, id string) (*models.Integration, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *IntegrationsService) Create(ctx context.Context, integration models.Integration) (*models.Integration, error) {
	return s.repo.Create(ctx, integration)
}

func (s *IntegrationsService) Update(ctx context.Context, id string, patch models.IntegrationPatch) error {
	return s.repo.Update(ctx, id, patch)
}

func (s *IntegrationsService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Connect marks the integration active and records a sync
func (s *IntegrationsService) Connect(ctx context.Context, id string) (*models.Integration, error) {
	return s.setStatus(ctx, "IntegrationsService.Connect", id, models.IntegrationStatusActive)
}

// Disconnect marks the integration inactive
func (s *IntegrationsService) Disconnect(ctx context.Context, id string) (*models.Integration, error) {
	return s.setStatus(ctx, "IntegrationsService.Disconnect", id, models.IntegrationStatusInactive)
}

func (s *IntegrationsService) setStatus(ctx context.Context, spanName, id string, status models.IntegrationStatus) (*models.Integration, error) {
	ctx, span := tracing.StartSpan(ctx, spanName)
	defer span.End()

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	patch := models.IntegrationPatch{Status: &status}
	if status == models.IntegrationStatusActive {
		synced := s.now()
		patch.LastSync = &synced
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"integration_id": id,
		"status":         status,
	}).Info("integration status changed")
	return s.repo.GetByID(ctx, id)
}

func cloneIntegrations(list []models.Integration) []models.Integration {
	return ectolinq.Map(list, func(i models.Integration) models.Integration {
		i.Configuration = maps.Clone(i.Configuration)
		i.Metadata = maps.Clone(i.Metadata)
		if i.LastSync != nil {
			t := *i.LastSync
			i.LastSync = &t
		}
		return i
	})
}
