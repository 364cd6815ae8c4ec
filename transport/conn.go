package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/shortlink-org/go-sdk/remoting/command"
)

// conn is one TCP connection to a remote address with its in-flight requests.
type conn struct {
	netConn net.Conn
	done    chan struct{}
	pending map[int32]chan *command.RemotingCommand
	err     error
	addr    string

	writeMu sync.Mutex
	mu      sync.Mutex
	once    sync.Once
}

func newConn(addr string, netConn net.Conn) *conn {
	return &conn{
		addr:    addr,
		netConn: netConn,
		done:    make(chan struct{}),
		pending: make(map[int32]chan *command.RemotingCommand),
	}
}

func (c *conn) register(opaque int32) (<-chan *command.RemotingCommand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	if _, ok := c.pending[opaque]; ok {
		return nil, ErrDuplicateOpaque
	}

	ch := make(chan *command.RemotingCommand, 1)
	c.pending[opaque] = ch

	return ch, nil
}

func (c *conn) unregister(opaque int32) {
	c.mu.Lock()
	delete(c.pending, opaque)
	c.mu.Unlock()
}

// complete hands resp to the waiter registered for its opaque.
func (c *conn) complete(resp *command.RemotingCommand) bool {
	c.mu.Lock()
	ch, ok := c.pending[resp.Opaque]
	delete(c.pending, resp.Opaque)
	c.mu.Unlock()

	if !ok {
		return false
	}

	ch <- resp

	return true
}

func (c *conn) write(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// zero deadline clears a previous one
	deadline, _ := ctx.Deadline()

	if err := c.netConn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	_, err := c.netConn.Write(frame)

	return err
}

// close fails every pending request and reports whether this call closed c.
func (c *conn) close(cause error) bool {
	closed := false

	c.once.Do(func() {
		closed = true

		c.mu.Lock()
		c.err = cause
		c.pending = map[int32]chan *command.RemotingCommand{}
		c.mu.Unlock()

		close(c.done)

		if err := c.netConn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.mu.Lock()
			c.err = errors.Join(cause, err)
			c.mu.Unlock()
		}
	})

	return closed
}

func (c *conn) cause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}
