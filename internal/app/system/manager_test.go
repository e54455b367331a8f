package system

import (
	"context"
	"fmt"
	"testing"
)

type recordingService struct {
	name     string
	events   *[]string
	startErr error
	stopErr  error
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.events = append(*s.events, "start "+s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop "+s.name)
	return s.stopErr
}

func TestManagerOrdering(t *testing.T) {
	m := NewManager()
	var events []string
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&recordingService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "start c", "stop c", "stop b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestManagerStartFailureUnwinds(t *testing.T) {
	m := NewManager()
	var events []string
	_ = m.Register(&recordingService{name: "a", events: &events})
	_ = m.Register(&recordingService{name: "b", events: &events, startErr: fmt.Errorf("boom")})
	_ = m.Register(&recordingService{name: "c", events: &events})

	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}

	want := []string{"start a", "start b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestManagerRegistrationRules(t *testing.T) {
	m := NewManager()
	var events []string

	if err := m.Register(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
	if err := m.Register(&recordingService{name: "", events: &events}); err == nil {
		t.Fatalf("expected error for unnamed service")
	}
	if err := m.Register(&recordingService{name: "a", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(&recordingService{name: "a", events: &events}); err == nil {
		t.Fatalf("expected error for duplicate name")
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(&recordingService{name: "b", events: &events}); err == nil {
		t.Fatalf("expected error registering after start")
	}
	if err := m.Start(context.Background()); err == nil {
		t.Fatalf("expected error starting twice")
	}
}
