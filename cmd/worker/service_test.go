package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(context.Context) error {
	f.calls++
	return f.err
}

func testParams(consumer runner) ServiceParams {
	return ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:       fakePinger{},
		Redis:    fakePinger{},
		PubSub:   fakePinger{},
		Consumer: consumer,
	}
}

func TestRunStopsWhenDependencyIsDown(t *testing.T) {
	consumer := &fakeRunner{}
	params := testParams(consumer)
	params.Redis = fakePinger{err: errors.New("connection refused")}

	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
	if consumer.calls != 0 {
		t.Fatalf("consumer must not start before dependencies are ready")
	}
}

func TestRunSurfacesConsumerFailure(t *testing.T) {
	consumer := &fakeRunner{err: errors.New("subscription deleted")}
	svc, err := NewService(testParams(consumer))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Run(context.Background()); err == nil || err.Error() != "subscription deleted" {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestRunReturnsContextErrorOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc, err := NewService(testParams(&fakeRunner{err: context.Canceled}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	if _, err := NewService(testParams(nil)); err == nil {
		t.Fatalf("expected error without consumer")
	}
}
