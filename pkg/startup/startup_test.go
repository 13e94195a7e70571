package startup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/startup"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recorder struct {
	events []string
}

func (r *recorder) dependency(name string, requires ...string) startup.Dependency {
	return startup.Dependency{
		Name:     name,
		Requires: requires,
		StartFunc: func(context.Context) error {
			r.events = append(r.events, "start:"+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			r.events = append(r.events, "stop:"+name)
			return nil
		},
	}
}

func TestStartup_StartsDependenciesFirst(t *testing.T) {
	rec := &recorder{}
	s := startup.NewStartup(getTestLogger(), 1)
	s.AddDependency(rec.dependency("http", "storage", "events"))
	s.AddDependency(rec.dependency("storage", "kvs"))
	s.AddDependency(rec.dependency("events"))
	s.AddDependency(rec.dependency("kvs"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:kvs", "start:storage", "start:events", "start:http"}, rec.events)
	assert.Equal(t, startup.StartupStatusStarted, s.Status("http"))

	rec.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:http", "stop:events", "stop:storage", "stop:kvs"}, rec.events)
	assert.Equal(t, startup.StartupStatusStopped, s.Status("kvs"))
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	attempts := 0
	s := startup.NewStartup(getTestLogger(), 3)
	s.SetBackoffUnit(time.Millisecond)
	s.AddDependency(startup.Dependency{
		Name: "kvs",
		StartFunc: func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestStartup_GivesUpAfterMaxAttempts(t *testing.T) {
	s := startup.NewStartup(getTestLogger(), 2)
	s.SetBackoffUnit(time.Millisecond)
	s.AddDependency(startup.Dependency{
		Name:      "kvs",
		StartFunc: func(context.Context) error { return errors.New("connection refused") },
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, startup.StartupStatusFailed, s.Status("kvs"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := startup.NewStartup(getTestLogger(), 1)
	s.AddDependency(startup.Dependency{Name: "http", Requires: []string{"storage"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency 'storage'")
}

func TestStartup_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startup.NewStartup(getTestLogger(), 5)
	s.SetBackoffUnit(time.Hour)
	s.AddDependency(startup.Dependency{
		Name: "kvs",
		StartFunc: func(context.Context) error {
			cancel()
			return errors.New("connection refused")
		},
	})

	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
}
