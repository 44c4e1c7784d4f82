package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"soak_console/internal/logger"
)

type shutdownRecorder struct {
	steps []string
}

func (r *shutdownRecorder) Shutdown(ctx context.Context) error {
	r.steps = append(r.steps, "http")
	return errors.New("deadline exceeded")
}

func (r *shutdownRecorder) StopAll() { r.steps = append(r.steps, "tasks") }

func (r *shutdownRecorder) Wait() { r.steps = append(r.steps, "dispatches") }

func TestShutdown_StopsHTTPBeforeDrainingDispatches(t *testing.T) {
	rec := &shutdownRecorder{}
	cancel := func() { rec.steps = append(rec.steps, "cancel") }
	tracing := func(ctx context.Context) error {
		rec.steps = append(rec.steps, "tracing")
		return nil
	}

	shutdown(context.Background(), cancel, rec, rec, rec, tracing, logger.Nop())

	want := []string{"http", "cancel", "tasks", "dispatches", "tracing"}
	if !reflect.DeepEqual(rec.steps, want) {
		t.Fatalf("shutdown order = %v, want %v", rec.steps, want)
	}
}
