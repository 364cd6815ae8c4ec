package transport

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/shortlink-org/go-sdk/remoting/codec"
	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/observability/flight"
	"github.com/shortlink-org/go-sdk/remoting/observability/metrics"
)

type Option func(*Client)

// Apply a batch of options
func (c *Client) apply(options ...Option) {
	for _, option := range options {
		option(c)
	}
}

// WithTracer sets the provider invoke spans are started from
func WithTracer(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp == nil {
			return
		}

		c.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMetrics records requests and connections into m
func WithMetrics(m *metrics.Remoting) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithFlightRecorder dumps a runtime trace snapshot when an invoke is slow
func WithFlightRecorder(recorder *flight.Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithCodec overrides the codec built from config
func WithCodec(cdc *codec.Codec) Option {
	return func(c *Client) {
		if cdc == nil {
			return
		}

		c.codec = cdc
	}
}

// WithProcessor registers a processor for server-initiated requests
func WithProcessor(code command.RequestCode, processor Processor) Option {
	return func(c *Client) {
		c.processors.register(code, processor)
	}
}
