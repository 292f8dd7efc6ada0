package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/shipping-service/pkg/config"
	"github.com/angelmondragon/shipping-service/pkg/logger"
)

type fakeServer struct {
	startErr error
	once     sync.Once
	stopped  chan struct{}
	shutdown atomic.Bool
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown.Store(true)
	f.once.Do(func() { close(f.stopped) })
	return nil
}

type fakeConsumer struct {
	started  chan struct{}
	finished atomic.Bool
}

func (f *fakeConsumer) Run(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	f.finished.Store(true)
	return ctx.Err()
}

func TestNewServiceValidatesParams(t *testing.T) {
	if _, err := NewService(ServiceParams{Server: newFakeServer(nil)}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without server")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	server := newFakeServer(nil)
	consumer := &fakeConsumer{started: make(chan struct{})}
	svc, err := NewService(ServiceParams{Logger: logger.Nop(), Server: server, Consumer: consumer})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-consumer.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
	if !server.shutdown.Load() {
		t.Fatal("expected http server shutdown")
	}
	if !consumer.finished.Load() {
		t.Fatal("expected consumer to stop")
	}
}

func TestServiceRunReturnsServerFailure(t *testing.T) {
	consumer := &fakeConsumer{started: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Server:   newFakeServer(errors.New("address already in use")),
		Consumer: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected server failure to surface")
	}
	if !consumer.finished.Load() {
		t.Fatal("consumer should be stopped when the server fails")
	}
}

func TestNewTransportMemory(t *testing.T) {
	cfg := &config.Config{Transport: config.TransportConfig{Driver: "Memory", QueueFIFO: true}}
	tr, err := newTransport(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	defer tr.Close()

	if !tr.queue.FIFO() {
		t.Fatal("expected FIFO queue when forced")
	}
	if tr.topic.FIFO() {
		t.Fatal("expected standard topic")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewTransportRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{Transport: config.TransportConfig{Driver: "kafka"}}
	if _, err := newTransport(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
