/*
Package nameserver resolves topic routes from RocketMQ name servers.
*/
package nameserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/segmentio/encoding/json"
	"github.com/sony/gobreaker"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/header"
	"github.com/shortlink-org/go-sdk/remoting/logger"
	"github.com/shortlink-org/go-sdk/remoting/route"
	"github.com/shortlink-org/go-sdk/remoting/transport"
	"github.com/shortlink-org/go-sdk/remoting/validation"
)

var (
	ErrTopicNotExist = errors.New("topic route does not exist")
	ErrNoNameServer  = errors.New("no name server address configured")
)

const defaultRetryMaxElapsed = 5 * time.Second

// Invoker sends a request and waits for its response.
type Invoker interface {
	InvokeSync(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error)
}

type Resolver struct {
	log     logger.Logger
	invoker Invoker
	routes  *expirable.LRU[string, *route.TopicRouteData]
	group   singleflight.Group

	// one breaker per name server address
	breakers map[string]*gobreaker.CircuitBreaker

	addrs      []string
	next       atomic.Uint32
	maxElapsed time.Duration
}

// New reads NAMESRV_ADDR (separated by ';', ',' or spaces) and the cache and retry settings.
func New(log logger.Logger, cfg *config.Config, invoker Invoker) (*Resolver, error) {
	cfg.SetDefault("NAMESRV_ROUTE_TTL", "30s")
	cfg.SetDefault("NAMESRV_ROUTE_CACHE_SIZE", 1024) //nolint:mnd // default cache size
	cfg.SetDefault("NAMESRV_RETRY_MAX_ELAPSED", "5s")
	cfg.SetDefault("NAMESRV_CB_TIMEOUT", "30s")
	cfg.SetDefault("NAMESRV_CB_FAILURES", 5) //nolint:mnd // consecutive failures before opening

	addrs := cfg.GetStringSlice("NAMESRV_ADDR")
	if len(addrs) == 0 {
		return nil, ErrNoNameServer
	}

	log = log.With(slog.String("component", "nameserver"))

	r := &Resolver{
		log:        log,
		invoker:    invoker,
		routes:     expirable.NewLRU[string, *route.TopicRouteData](cfg.GetInt("NAMESRV_ROUTE_CACHE_SIZE"), nil, cfg.GetDuration("NAMESRV_ROUTE_TTL")),
		breakers:   make(map[string]*gobreaker.CircuitBreaker, len(addrs)),
		addrs:      addrs,
		maxElapsed: cfg.GetDuration("NAMESRV_RETRY_MAX_ELAPSED"),
	}

	// zero would let backoff retry forever
	if r.maxElapsed <= 0 {
		r.maxElapsed = defaultRetryMaxElapsed
	}

	failures := uint32(max(cfg.GetInt("NAMESRV_CB_FAILURES"), 1)) //nolint:gosec // bounded below

	for _, addr := range addrs {
		r.breakers[addr] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "remoting_namesrv_" + addr,
			Timeout:     cfg.GetDuration("NAMESRV_CB_TIMEOUT"),
			MaxRequests: 1,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// an answer from the server, whatever its code, means it is up
			IsSuccessful: func(err error) bool {
				var remote *transport.RemoteError

				return err == nil || errors.As(err, &remote)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("name server circuit breaker",
					slog.String("name", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		})
	}

	return r, nil
}

func (r *Resolver) NameServers() []string {
	return append([]string(nil), r.addrs...)
}

// QueryRoute returns the route of topic, from cache while it is fresh.
func (r *Resolver) QueryRoute(ctx context.Context, topic string) (*route.TopicRouteData, error) {
	t := validation.Topic(topic)
	if err := validation.ValidTopic().IsSatisfiedBy(&t); err != nil {
		return nil, err
	}

	if data, ok := r.routes.Get(topic); ok {
		return data, nil
	}

	// shared by every waiter; one caller leaving must not fail the others
	result := r.group.DoChan(topic, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.maxElapsed)
		defer cancel()

		data, err := r.fetchRoute(fetchCtx, topic)
		if err != nil {
			return nil, err
		}

		r.routes.Add(topic, data)

		return data, nil
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}

		data, _ := res.Val.(*route.TopicRouteData)

		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached route of topic.
func (r *Resolver) Invalidate(topic string) {
	r.routes.Remove(topic)
}

func (r *Resolver) fetchRoute(ctx context.Context, topic string) (*route.TopicRouteData, error) {
	req := func() *command.RemotingCommand {
		return command.CreateRequest(command.GetRouteInfoByTopic, &header.QueryRouteRequestHeader{Topic: topic})
	}

	body, err := r.invoke(ctx, req)
	if err != nil {
		var remote *transport.RemoteError
		if errors.As(err, &remote) && remote.Code == int32(command.TopicNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTopicNotExist, topic)
		}

		return nil, fmt.Errorf("query route of %s: %w", topic, err)
	}

	data, err := route.DecodeTopicRouteData(body)
	if err != nil {
		return nil, fmt.Errorf("query route of %s: %w", topic, err)
	}

	return data, nil
}

// TopicList returns every topic the name servers know about.
func (r *Resolver) TopicList(ctx context.Context) ([]string, error) {
	body, err := r.invoke(ctx, func() *command.RemotingCommand {
		return command.CreateRequest(command.GetAllTopicListFromNameServer, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("query topic list: %w", err)
	}

	var list struct {
		TopicList []string `json:"topicList"`
	}

	if err = json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", route.ErrInvalidRoute, err)
	}

	return list.TopicList, nil
}

// invoke tries the name servers in turn, backing off between rounds.
// Each attempt gets a fresh request so opaques are never reused.
func (r *Resolver) invoke(ctx context.Context, newRequest func() *command.RemotingCommand) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond //nolint:mnd // first retry delay
	policy.MaxElapsedTime = r.maxElapsed

	var body []byte

	operation := func() error {
		var errs error

		for range r.addrs {
			addr := r.addrs[int(r.next.Load())%len(r.addrs)]

			resp, err := r.call(ctx, addr, newRequest())
			if err == nil {
				body = resp.Body

				return nil
			}

			var remote *transport.RemoteError
			if errors.As(err, &remote) && remote.Code == int32(command.TopicNotExist) {
				return backoff.Permanent(err)
			}

			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			errs = errors.Join(errs, fmt.Errorf("%s: %w", addr, err))

			r.next.Inc()
		}

		return errs
	}

	notify := func(err error, wait time.Duration) {
		r.log.WarnWithContext(ctx, "name server request failed, retrying",
			slog.Any("error", err),
			slog.Duration("backoff", wait),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (r *Resolver) call(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error) {
	out, err := r.breakers[addr].Execute(func() (any, error) {
		resp, err := r.invoker.InvokeSync(ctx, addr, req)
		if err != nil {
			return nil, err
		}

		return resp, transport.CheckResponse(resp)
	})

	resp, _ := out.(*command.RemotingCommand)

	return resp, err
}
