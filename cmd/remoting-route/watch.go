package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

var errNoRouteYet = errors.New("route not resolved yet")

type watchOptions struct {
	listen   string
	interval time.Duration
}

// newWatchCommand keeps resolving a route and serves /metrics, /live and /ready.
func newWatchCommand(opts *rootOptions) *cobra.Command {
	watch := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch TOPIC",
		Short: "Resolve a topic route periodically and expose metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ln, err := net.Listen("tcp", watch.listen)
			if err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}

			return runWatch(cmd.Context(), a, ln, watch.interval, args[0])
		},
	}

	cmd.Flags().StringVar(&watch.listen, "listen", ":9090", "address of the metrics endpoint")
	cmd.Flags().DurationVar(&watch.interval, "interval", 10*time.Second, "time between route lookups") //nolint:mnd // default interval

	return cmd
}

// runWatch serves the monitoring handler on ln until ctx is done. /ready reports
// the result of the last lookup.
func runWatch(ctx context.Context, a *app, ln net.Listener, interval time.Duration, topic string) error {
	var lastErr atomic.Error

	lastErr.Store(errNoRouteYet)

	a.monitoring.AddReadinessCheck("route", func() error {
		return lastErr.Load()
	})

	server := &http.Server{
		Handler:           a.monitoring.Handler,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd // header timeout
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd // shutdown timeout
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			a.resolver.Invalidate(topic)

			data, err := a.resolver.QueryRoute(ctx, topic)
			lastErr.Store(err)

			if err != nil {
				a.log.WarnWithContext(ctx, "resolve route", slog.String("topic", topic), slog.Any("error", err))
			} else {
				a.log.InfoWithContext(ctx, "route resolved",
					slog.String("topic", topic),
					slog.Int("brokers", len(data.BrokerDatas)),
					slog.Int("writable_queues", len(data.WritableQueues(topic))),
				)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}
