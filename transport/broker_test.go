package transport_test

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/shortlink-org/go-sdk/remoting/codec"
	"github.com/shortlink-org/go-sdk/remoting/command"
)

// broker is a loopback peer speaking the remoting frame format.
type broker struct {
	ln      net.Listener
	codec   *codec.Codec
	handle  func(b *broker, c net.Conn, cmd *command.RemotingCommand)
	conns   []net.Conn
	accepts atomic.Int32

	mu      sync.Mutex
	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func newBroker(t *testing.T, handle func(b *broker, c net.Conn, cmd *command.RemotingCommand)) *broker {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	b := &broker{
		ln:     ln,
		codec:  &codec.Codec{Type: codec.JSON, MaxFrameSize: codec.DefaultMaxFrameSize},
		handle: handle,
	}

	b.wg.Go(b.serve)
	t.Cleanup(b.close)

	return b
}

func (b *broker) addr() string {
	return b.ln.Addr().String()
}

func (b *broker) serve() {
	for {
		c, err := b.ln.Accept()
		if err != nil {
			return
		}

		b.accepts.Inc()

		b.mu.Lock()
		b.conns = append(b.conns, c)
		b.mu.Unlock()

		b.wg.Go(func() {
			for {
				cmd, errRead := b.codec.ReadCommand(c)
				if errRead != nil {
					return
				}

				b.handle(b, c, cmd)
			}
		})
	}
}

func (b *broker) write(c net.Conn, cmd *command.RemotingCommand) {
	frame, err := b.codec.Encode(cmd)
	if err != nil {
		panic(err)
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	_, _ = c.Write(frame)
}

// dropAll closes every accepted connection.
func (b *broker) dropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.conns {
		_ = c.Close()
	}

	b.conns = nil
}

func (b *broker) close() {
	_ = b.ln.Close()
	b.dropAll()
	b.wg.Wait()
}

// echo answers every request with SUCCESS and the request's ext fields as remark.
func echo(b *broker, c net.Conn, cmd *command.RemotingCommand) {
	if cmd.IsResponse() || cmd.IsOneway() {
		return
	}

	topic, _ := cmd.ExtField("topic")
	resp := command.ResponseTo(cmd, command.Success, topic)
	resp.Body = cmd.Body

	b.write(c, resp)
}
