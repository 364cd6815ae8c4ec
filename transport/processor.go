package transport

import (
	"context"
	"sync"

	"github.com/shortlink-org/go-sdk/remoting/command"
)

// Processor handles a request the remote peer initiated.
//
// A nil response with a nil error sends nothing back.
type Processor interface {
	ProcessRequest(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error)
}

type ProcessorFunc func(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error)

func (f ProcessorFunc) ProcessRequest(ctx context.Context, addr string, req *command.RemotingCommand) (*command.RemotingCommand, error) {
	return f(ctx, addr, req)
}

type processors struct {
	mu    sync.RWMutex
	table map[int32]Processor
}

func (p *processors) register(code command.RequestCode, processor Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.table == nil {
		p.table = make(map[int32]Processor)
	}

	p.table[int32(code)] = processor
}

func (p *processors) unregister(code command.RequestCode) {
	p.mu.Lock()
	delete(p.table, int32(code))
	p.mu.Unlock()
}

func (p *processors) lookup(code int32) (Processor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	processor, ok := p.table[code]

	return processor, ok
}
