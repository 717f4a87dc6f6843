package cron

import (
	"context"
	"reflect"
	"testing"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry(namedJob("a"), nil, namedJob("b"))
	if got := registry.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected names %v", got)
	}
	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(namedJob("validation-retention")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := registry.Register(namedJob("validation-retention")); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if len(registry.Jobs()) != 1 {
		t.Fatalf("expected one job, got %d", len(registry.Jobs()))
	}
}
