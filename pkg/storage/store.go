package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/events"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/gate"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
)

const (
	DefaultReadyTimeout       = 10 * time.Second
	DefaultBridgePollInterval = 100 * time.Millisecond
	DefaultBridgeTimeout      = 5 * time.Second
)

// fallback reasons, used as metric labels
const (
	ReasonBackendUnavailable = "backend_unavailable"
	ReasonSchemaInitFailure  = "schema_init_failure"
	ReasonReadinessTimeout   = "readiness_timeout"
)

// ErrClosed is returned by Adapter after Close
var ErrClosed = errors.New("storage: store closed")

type Options struct {
	Platform Platform
	// Engine opens the relational connection; nil means none is available
	Engine Engine
	// BridgeProbe is polled on the web platform before the engine is opened
	BridgeProbe        BridgeProbe
	BridgePollInterval time.Duration
	BridgeTimeout      time.Duration
	// ReadyTimeout bounds how long callers wait before fallback is forced
	ReadyTimeout time.Duration
	// KVS is the fallback medium; an in-memory store when nil
	KVS       kvs.Store
	KeyPrefix string
	Schema    SchemaInitializer
}

// Store owns the readiness gate and the active backend. Repositories get the
// backend through Adapter, which waits for the gate.
type Store struct {
	opts   Options
	logger ectologger.Logger
	gate   *gate.Gate
	bus    *events.Bus

	mu      sync.RWMutex
	adapter Adapter
	closed  bool

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func New(opts Options, bus *events.Bus, logger ectologger.Logger) *Store {
	if opts.Platform == "" {
		opts.Platform = PlatformNative
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.BridgePollInterval <= 0 {
		opts.BridgePollInterval = DefaultBridgePollInterval
	}
	if opts.BridgeTimeout <= 0 {
		opts.BridgeTimeout = DefaultBridgeTimeout
	}
	if opts.KVS == nil {
		opts.KVS = kvs.NewMemoryStore()
	}
	if opts.Schema == nil {
		opts.Schema = NewSchemaInitializer(logger)
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}

	return &Store{
		opts:   opts,
		logger: logger,
		gate:   gate.New(),
		bus:    bus,
	}
}

// Start runs backend selection in the background. If the gate is still
// closed after ReadyTimeout the fallback is activated, whether or not any
// caller is waiting. Later calls do nothing.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			s.selectAndInitialize(ctx)
		}()
		go func() {
			defer s.wg.Done()
			_, _ = gate.AwaitOrForce(ctx, s.gate, s.opts.ReadyTimeout, s.forceFallback(ctx))
		}()
	})
}

// Initialize runs backend selection on the calling goroutine and returns the
// resulting mode.
func (s *Store) Initialize(ctx context.Context) Mode {
	s.selectAndInitialize(ctx)
	return s.Mode()
}

func (s *Store) Ready() bool {
	return s.gate.Ready()
}

// Mode returns the active backend, ModeUnset before the gate opens
func (s *Store) Mode() Mode {
	if a := s.current(); a != nil {
		return a.Mode()
	}
	return ModeUnset
}

func (s *Store) Gate() *gate.Gate {
	return s.gate
}

func (s *Store) Events() *events.Bus {
	return s.bus
}

// Adapter returns the active backend, waiting for the gate at most
// ReadyTimeout. When the wait times out the fallback is activated.
func (s *Store) Adapter(ctx context.Context) (Adapter, error) {
	if a := s.current(); a != nil {
		return a, nil
	}

	start := time.Now()
	_, err := gate.AwaitOrForce(ctx, s.gate, s.opts.ReadyTimeout, s.forceFallback(ctx))
	metrics.GateWaitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	a := s.current()
	if a == nil {
		return nil, ErrClosed
	}
	return a, nil
}

func (s *Store) forceFallback(ctx context.Context) func() {
	return func() {
		s.activateFallback(ctx, ReasonReadinessTimeout, errors.Errorf("storage not ready after %s", s.opts.ReadyTimeout))
	}
}

// Close stops a running selection and closes the active backend
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	a := s.adapter
	s.adapter = nil
	s.closed = true
	s.mu.Unlock()

	// release anyone still waiting
	s.gate.Open()

	if a != nil {
		return a.Close()
	}
	return nil
}

func (s *Store) current() Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adapter
}

func (s *Store) selectAndInitialize(ctx context.Context) {
	if s.gate.Ready() {
		return
	}

	db, err := s.openRelational(ctx)
	if err != nil {
		s.activateFallback(ctx, ReasonBackendUnavailable, err)
		return
	}

	if err := s.opts.Schema.Initialize(ctx, db); err != nil {
		_ = db.Close()
		s.activateFallback(ctx, ReasonSchemaInitFailure, err)
		return
	}

	if !s.activate(ctx, NewRelationalAdapter(db, s.logger)) {
		s.logger.WithContext(ctx).Warn("Relational backend became ready after another backend was activated, closing it")
		_ = db.Close()
		return
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"platform": s.opts.Platform,
		"driver":   db.DriverName(),
	}).Info("Relational storage backend ready")
}

func (s *Store) openRelational(ctx context.Context) (database.DB, error) {
	if s.opts.Engine == nil {
		return nil, ErrEngineUnavailable
	}
	if s.opts.Platform == PlatformWeb {
		if err := s.waitForBridge(ctx); err != nil {
			return nil, err
		}
	}

	db, err := s.opts.Engine.Open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open relational engine")
	}
	return db, nil
}

// waitForBridge polls the bridge probe until it reports the engine support
// registered or BridgeTimeout elapses.
func (s *Store) waitForBridge(ctx context.Context) error {
	probe := s.opts.BridgeProbe
	if probe == nil {
		return errors.Wrap(ErrEngineUnavailable, "no bridge on web platform")
	}
	if probe(ctx) {
		return nil
	}

	ticker := time.NewTicker(s.opts.BridgePollInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(s.opts.BridgeTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return errors.Wrapf(ErrEngineUnavailable, "bridge not registered after %s", s.opts.BridgeTimeout)
		case <-ticker.C:
			if probe(ctx) {
				return nil
			}
		}
	}
}

// activate installs a as the backend and opens the gate. Only the first
// activation wins; later ones report false.
func (s *Store) activate(ctx context.Context, a Adapter) bool {
	s.mu.Lock()
	if s.adapter != nil || s.closed {
		s.mu.Unlock()
		return false
	}
	s.adapter = observe(a, s.bus)
	s.mu.Unlock()

	metrics.SetBackendMode(string(a.Mode()), string(ModeRelational), string(ModeFallback))
	s.gate.Open()
	s.bus.Publish(ctx, events.Change{
		Operation: events.OperationActivate,
		Backend:   string(a.Mode()),
	})
	return true
}

func (s *Store) activateFallback(ctx context.Context, reason string, cause error) bool {
	a := NewKvsAdapter(s.opts.KVS, s.opts.KeyPrefix, s.logger)
	if err := a.Seed(ctx, Collections()...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to seed fallback buckets")
	}

	if !s.activate(ctx, a) {
		return false
	}

	metrics.FallbackActivationsTotal.WithLabelValues(reason).Inc()
	s.logger.WithContext(ctx).WithError(cause).WithFields(map[string]any{
		"platform": s.opts.Platform,
		"reason":   reason,
	}).Warn("Relational storage unavailable, using key-value fallback")
	return true
}
