package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type checkableFunc func(ctx context.Context) error

func (f checkableFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestAdapterChecker(t *testing.T) {
	tests := []struct {
		name       string
		check      checkableFunc
		timeout    time.Duration
		wantStatus Status
		wantError  string
	}{
		{
			name:       "healthy",
			check:      func(context.Context) error { return nil },
			wantStatus: StatusHealthy,
		},
		{
			name:       "failing",
			check:      func(context.Context) error { return errors.New("connection refused") },
			wantStatus: StatusUnhealthy,
			wantError:  "connection refused",
		},
		{
			name: "timeout",
			check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			timeout:    10 * time.Millisecond,
			wantStatus: StatusUnhealthy,
			wantError:  context.DeadlineExceeded.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewAdapterChecker("mongodb", tt.check, tt.timeout).Check(context.Background())
			if result.Name != "mongodb" {
				t.Errorf("Name = %q", result.Name)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", result.Status, tt.wantStatus)
			}
			if result.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", result.Error, tt.wantError)
			}
		})
	}
}

func TestRegistry_Check(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewPingChecker("memory"))
	reg.Register(NewDatabaseChecker("mongodb", checkableFunc(func(context.Context) error { return nil })))

	result := reg.Check(context.Background())
	if !result.IsHealthy() {
		t.Fatalf("Status = %q, want healthy", result.Status)
	}
	if got := reg.List(); !reflect.DeepEqual(got, []string{"memory", "mongodb"}) {
		t.Errorf("List() = %v", got)
	}

	reg.Register(NewCacheChecker("redis", checkableFunc(func(context.Context) error { return errors.New("down") })))
	result = reg.Check(context.Background())
	if result.IsHealthy() {
		t.Fatal("expected unhealthy when one check fails")
	}
	names := make([]string, 0, len(result.Checks))
	for _, c := range result.Checks {
		names = append(names, c.Name)
	}
	if !reflect.DeepEqual(names, []string{"memory", "mongodb", "redis"}) {
		t.Errorf("check order = %v", names)
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewCacheChecker("redis", checkableFunc(func(context.Context) error { return errors.New("down") })))
	reg.Register(NewPingChecker("redis"))

	if result := reg.Check(context.Background()); !result.IsHealthy() || len(result.Checks) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestRegistry_Empty(t *testing.T) {
	result := NewRegistry().Check(context.Background())
	if !result.IsHealthy() || len(result.Checks) != 0 {
		t.Fatalf("result = %+v", result)
	}
}
