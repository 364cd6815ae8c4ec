package main

import (
	"context"
	"log/slog"

	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/logger"
	"github.com/shortlink-org/go-sdk/remoting/nameserver"
	"github.com/shortlink-org/go-sdk/remoting/observability/flight"
	"github.com/shortlink-org/go-sdk/remoting/observability/metrics"
	"github.com/shortlink-org/go-sdk/remoting/observability/tracing"
	"github.com/shortlink-org/go-sdk/remoting/transport"
)

// app holds everything a subcommand needs to talk to the name servers.
type app struct {
	log        logger.Logger
	client     *transport.Client
	resolver   *nameserver.Resolver
	monitoring *metrics.Monitoring
	cleanup    []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	log, cleanupLog, err := logger.NewDefault(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.log = log
	a.cleanup = append(a.cleanup, cleanupLog)

	tp, cleanupTracer, err := tracing.New(ctx, log, cfg)
	if err != nil {
		a.close()

		return nil, err
	}

	a.cleanup = append(a.cleanup, cleanupTracer)

	recorder, err := flight.New(cfg)
	if err != nil {
		a.close()

		return nil, err
	}

	a.cleanup = append(a.cleanup, recorder.Stop)

	a.monitoring, err = metrics.New()
	if err != nil {
		a.close()

		return nil, err
	}

	a.client, err = transport.New(log, cfg,
		transport.WithTracer(tp),
		transport.WithMetrics(a.monitoring.Remoting),
		transport.WithFlightRecorder(recorder),
	)
	if err != nil {
		a.close()

		return nil, err
	}

	a.cleanup = append(a.cleanup, func() {
		if errClose := a.client.Close(); errClose != nil {
			log.Warn("close remoting client", slog.Any("error", errClose))
		}
	})

	a.resolver, err = nameserver.New(log, cfg, a.client)
	if err != nil {
		a.close()

		return nil, err
	}

	log.Debug("remoting-route ready",
		slog.Any("namesrv", a.resolver.NameServers()),
		slog.String("client_id", a.client.ID()),
	)

	return a, nil
}

// close runs cleanups in reverse order.
func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}

	a.cleanup = nil
}
