package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shipping-service/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type consumerRunner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger          *logger.Logger
	Server          httpServer
	Consumer        consumerRunner
	ShutdownTimeout time.Duration
}

// Service runs the HTTP API and, when configured, the queue consumer in one process.
type Service struct {
	logg            *logger.Logger
	server          httpServer
	consumer        consumerRunner
	shutdownTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Server == nil {
		return nil, errors.New("http server is required")
	}
	timeout := params.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &Service{
		logg:            params.Logger,
		server:          params.Server,
		consumer:        params.Consumer,
		shutdownTimeout: timeout,
	}, nil
}

// Run blocks until ctx is canceled or a component fails. On the way out the HTTP server drains
// open requests and the consumer finishes the batch it holds.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		s.logg.Info(ctx, "shutting down http server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if s.consumer != nil {
		g.Go(func() error {
			if err := s.consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shipment consumer: %w", err)
			}
			return nil
		})
	} else {
		s.logg.Warn(ctx, "shipment consumer disabled")
	}

	return g.Wait()
}
