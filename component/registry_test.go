package component

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}

type describedComponent struct {
	fakeComponent
}

func (d *describedComponent) Describe() Description {
	return Description{Type: "http-session", Details: "https://api.test"}
}

func TestRegistry_Lifecycle(t *testing.T) {
	var log []string
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(&fakeComponent{name: name, log: &log}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "start:a,start:b,start:c,stop:c,stop:b,stop:a"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log})
	if err := r.Register(&fakeComponent{name: "a", log: &log}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestRegistry_StartFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log})
	_ = r.Register(&fakeComponent{name: "b", log: &log, startErr: boom})
	_ = r.Register(&fakeComponent{name: "c", log: &log})

	err := r.StartAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = r.StopAll(context.Background())
	want := "start:a,start:b,stop:a"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRegistry_StopErrorsJoined(t *testing.T) {
	var log []string
	e1, e2 := errors.New("e1"), errors.New("e2")
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &log, stopErr: e1})
	_ = r.Register(&fakeComponent{name: "b", log: &log, stopErr: e2})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestRegistry_HealthGetDescribe(t *testing.T) {
	var log []string
	r := NewRegistry()
	plain := &fakeComponent{name: "plain", log: &log}
	described := &describedComponent{fakeComponent{name: "users", log: &log}}
	_ = r.Register(plain)
	_ = r.Register(described)

	if r.Get("plain") != plain {
		t.Error("expected registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown name")
	}

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Name != "users" || health[1].Status != StatusHealthy {
		t.Errorf("unexpected health %v", health)
	}

	desc := r.Describe()
	if desc[0].Name != "plain" || desc[0].Type != "" {
		t.Errorf("unexpected description %+v", desc[0])
	}
	if desc[1].Name != "users" || desc[1].Type != "http-session" {
		t.Errorf("unexpected description %+v", desc[1])
	}
}
