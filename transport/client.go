/*
Package transport is a TCP remoting client.

It keeps one connection per remote address, correlates responses with
requests by opaque and dispatches requests initiated by the remote side to
the processors registered for their request code.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shortlink-org/go-sdk/remoting/codec"
	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/logger"
	"github.com/shortlink-org/go-sdk/remoting/observability/flight"
	"github.com/shortlink-org/go-sdk/remoting/observability/metrics"
	"github.com/shortlink-org/go-sdk/remoting/validation"
)

const instrumentationName = "github.com/shortlink-org/go-sdk/remoting/transport"

type Client struct {
	log      logger.Logger
	codec    *codec.Codec
	tracer   trace.Tracer
	metrics  *metrics.Remoting
	recorder *flight.Recorder

	// ctx is handed to processors and cancelled by Close.
	ctx    context.Context //nolint:containedctx // lifetime of the client
	cancel context.CancelFunc

	conns      map[string]*conn
	dials      singleflight.Group
	processors processors

	id            string
	dialTimeout   time.Duration
	invokeTimeout time.Duration

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New builds a client from REMOTING_* config keys.
func New(log logger.Logger, cfg *config.Config, options ...Option) (*Client, error) {
	cfg.SetDefault("REMOTING_DIAL_TIMEOUT", "3s")
	cfg.SetDefault("REMOTING_INVOKE_TIMEOUT", "3s")

	cdc, err := codec.New(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		log:           log,
		codec:         cdc,
		tracer:        otel.GetTracerProvider().Tracer(instrumentationName),
		ctx:           ctx,
		cancel:        cancel,
		conns:         make(map[string]*conn),
		id:            uuid.NewString(),
		dialTimeout:   cfg.GetDuration("REMOTING_DIAL_TIMEOUT"),
		invokeTimeout: cfg.GetDuration("REMOTING_INVOKE_TIMEOUT"),
	}

	client.apply(options...)

	return client, nil
}

// ID identifies this client instance in logs and spans.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) RegisterProcessor(code command.RequestCode, processor Processor) {
	c.processors.register(code, processor)
}

func (c *Client) UnregisterProcessor(code command.RequestCode) {
	c.processors.unregister(code)
}

// InvokeSync sends req to addr and waits for the response with the same opaque.
//
// Without a deadline on ctx REMOTING_INVOKE_TIMEOUT applies.
func (c *Client) InvokeSync(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, "remoting.InvokeSync", addr, req)
	defer span.End()

	if _, ok := ctx.Deadline(); !ok && c.invokeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.invokeTimeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := c.invokeSync(ctx, addr, req)

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(req.Code, resultOf(err), elapsed)
	c.dumpIfSlow(ctx, req, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithCommand(logger.WithRemote(c.log, addr), req.Code, req.Opaque).
			WarnWithContext(ctx, "remoting invoke failed", slog.Any("error", err))

		return nil, err
	}

	span.SetAttributes(attribute.Int("rocketmq.response.code", int(resp.Code)))

	return resp, nil
}

func (c *Client) invokeSync(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error) {
	frame, err := c.codec.Encode(req)
	if err != nil {
		return nil, err
	}

	cn, err := c.connect(ctx, addr)
	if err != nil {
		return nil, err
	}

	wait, err := cn.register(req.Opaque)
	if err != nil {
		if errors.Is(err, ErrDuplicateOpaque) {
			return nil, err
		}

		// dropped by the read loop after connect handed it out
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionClosed, addr, err)
	}

	if err = cn.write(ctx, frame); err != nil {
		cn.unregister(req.Opaque)
		c.drop(cn, err)

		return nil, fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}

	select {
	case resp := <-wait:
		return resp, nil
	case <-cn.done:
		select {
		case resp := <-wait:
			return resp, nil
		default:
		}

		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionClosed, addr, cn.cause())
	case <-ctx.Done():
		cn.unregister(req.Opaque)

		return nil, contextError(ctx, fmt.Sprintf("%s opaque %d", addr, req.Opaque))
	}
}

// contextError maps an expired deadline to ErrInvokeTimeout.
func contextError(ctx context.Context, what string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrInvokeTimeout, what)
	}

	return ctx.Err()
}

// InvokeOneway marks req oneway and sends it without waiting for a response.
func (c *Client) InvokeOneway(ctx context.Context, addr string, req *command.RemotingCommand) error {
	if err := c.validate(req); err != nil {
		return err
	}

	ctx, span := c.startSpan(ctx, "remoting.InvokeOneway", addr, req)
	defer span.End()

	req.MarkOneway()

	start := time.Now()

	err := c.send(ctx, addr, req)

	c.metrics.ObserveRequest(req.Code, resultOf(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	return nil
}

func (c *Client) send(ctx context.Context, addr string, cmd *command.RemotingCommand) error {
	frame, err := c.codec.Encode(cmd)
	if err != nil {
		return err
	}

	cn, err := c.connect(ctx, addr)
	if err != nil {
		return err
	}

	if err = cn.write(ctx, frame); err != nil {
		c.drop(cn, err)

		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}

	return nil
}

// connect returns the live connection to addr, dialing once for concurrent callers.
func (c *Client) connect(ctx context.Context, addr string) (*conn, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	c.mu.Lock()
	cn, ok := c.conns[addr]
	c.mu.Unlock()

	if ok {
		return cn, nil
	}

	result := c.dials.DoChan(addr, func() (any, error) {
		return c.dial(addr)
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}

		cn, _ = res.Val.(*conn)

		return cn, nil
	case <-ctx.Done():
		return nil, contextError(ctx, "dial "+addr)
	}
}

func (c *Client) dial(addr string) (*conn, error) {
	c.mu.Lock()
	if cn, ok := c.conns[addr]; ok {
		c.mu.Unlock()

		return cn, nil
	}
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.dialTimeout}

	netConn, err := dialer.DialContext(c.ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	cn := newConn(addr, netConn)

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		_ = netConn.Close()

		return nil, ErrClientClosed
	}

	c.conns[addr] = cn

	// Started under mu so Close cannot reach wg.Wait before this Add.
	c.wg.Go(func() {
		c.readLoop(cn)
	})
	c.mu.Unlock()

	c.metrics.ConnectionOpened()
	logger.WithRemote(c.log, addr).Debug("remoting connection opened", slog.String("client_id", c.id))

	return cn, nil
}

// drop closes cn and forgets it so the next call dials again.
func (c *Client) drop(cn *conn, cause error) {
	c.mu.Lock()
	if c.conns[cn.addr] == cn {
		delete(c.conns, cn.addr)
	}
	c.mu.Unlock()

	if cn.close(cause) {
		c.metrics.ConnectionClosed()
		c.log.Debug("remoting connection closed",
			slog.String("addr", cn.addr),
			slog.Any("cause", cause),
		)
	}
}

func (c *Client) readLoop(cn *conn) {
	for {
		cmd, err := c.codec.ReadCommand(cn.netConn)
		if err != nil {
			c.drop(cn, err)

			return
		}

		if cmd.IsResponse() {
			if !cn.complete(cmd) {
				c.log.Debug("response without a waiting request",
					slog.String("addr", cn.addr),
					slog.Int("opaque", int(cmd.Opaque)),
				)
			}

			continue
		}

		c.wg.Go(func() {
			c.handleRequest(cn, cmd)
		})
	}
}

func (c *Client) handleRequest(cn *conn, req *command.RemotingCommand) {
	c.metrics.ObserveInbound(req.Code)

	var resp *command.RemotingCommand

	processor, ok := c.processors.lookup(req.Code)
	if !ok {
		resp = command.ResponseTo(req, command.RequestCodeNotSupported,
			fmt.Sprintf("request code %d not supported", req.Code))
	} else {
		var err error

		resp, err = processor.ProcessRequest(c.ctx, cn.addr, req)
		if err != nil {
			logger.WithCommand(logger.WithRemote(c.log, cn.addr), req.Code, req.Opaque).
				Warn("remoting processor failed", slog.Any("error", err))

			resp = command.ResponseTo(req, command.SystemError, err.Error())
		}
	}

	if resp == nil || req.IsOneway() {
		return
	}

	resp.Opaque = req.Opaque
	resp.MarkResponse()

	frame, err := c.codec.Encode(resp)
	if err != nil {
		c.log.Error("encode remoting response", slog.Any("error", err))

		return
	}

	if err = cn.write(c.ctx, frame); err != nil {
		c.drop(cn, err)
	}
}

// Close closes every connection and waits for the reader goroutines.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()

	c.mu.Lock()
	conns := c.conns
	c.conns = make(map[string]*conn)
	c.mu.Unlock()

	var g errgroup.Group

	for _, cn := range conns {
		g.Go(func() error {
			if cn.close(ErrClientClosed) {
				c.metrics.ConnectionClosed()
			}

			return nil
		})
	}

	err := g.Wait()

	c.wg.Wait()

	return err
}

func (c *Client) startSpan(ctx context.Context, name, addr string, req *command.RemotingCommand) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("server.address", addr),
			attribute.Int("rocketmq.request.code", int(req.Code)),
			attribute.Int("rocketmq.opaque", int(req.Opaque)),
			attribute.String("rocketmq.client_id", c.id),
		),
	)
}

func (c *Client) dumpIfSlow(ctx context.Context, req *command.RemotingCommand, elapsed time.Duration) {
	path, err := c.recorder.ObserveSlow(fmt.Sprintf("code%d", req.Code), elapsed)
	if err != nil {
		c.log.WarnWithContext(ctx, "flight recorder dump failed", slog.Any("error", err))

		return
	}

	if path != "" {
		c.log.WarnWithContext(ctx, "slow remoting invoke",
			slog.Int("code", int(req.Code)),
			slog.Duration("elapsed", elapsed),
			slog.String("trace", path),
		)
	}
}

func (c *Client) validate(req *command.RemotingCommand) error {
	maxBody := c.codec.MaxFrameSize
	if maxBody <= 0 {
		maxBody = codec.DefaultMaxFrameSize
	}

	spec := validation.Request(maxBody)

	switch command.RequestCode(req.Code) {
	case command.SendMessage, command.SendMessageV2:
		spec = validation.SendMessage(maxBody)
	default:
	}

	if err := spec.IsSatisfiedBy(req); err != nil {
		return fmt.Errorf("invalid request %d: %w", req.Code, err)
	}

	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrInvokeTimeout):
		return metrics.ResultTimeout
	default:
		return metrics.ResultError
	}
}
