package system

import (
	"context"
	"fmt"
	"sync"
)

// Manager starts and stops registered services in registration order.
// Stop runs in reverse order so consumers shut down before providers.
type Manager struct {
	mu       sync.Mutex
	services []Service
	names    map[string]bool
	started  bool
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{names: make(map[string]bool)}
}

// Register adds a service. Names must be unique and registration must
// happen before Start.
func (m *Manager) Register(svc Service) error {
	if svc == nil {
		return fmt.Errorf("service is nil")
	}
	name := svc.Name()
	if name == "" {
		return fmt.Errorf("service name is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("cannot register %s: manager already started", name)
	}
	if m.names[name] {
		return fmt.Errorf("service %s already registered", name)
	}
	m.names[name] = true
	m.services = append(m.services, svc)
	return nil
}

// Start starts all registered services. On failure, services started so far
// are stopped in reverse order before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("manager already started")
	}

	for i, svc := range m.services {
		if err := svc.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.services[j].Stop(ctx)
			}
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
	}
	m.started = true
	return nil
}

// Stop stops all services in reverse registration order, collecting the
// first error encountered.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for i := len(m.services) - 1; i >= 0; i-- {
		if err := m.services[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", m.services[i].Name(), err)
		}
	}
	m.started = false
	return firstErr
}
