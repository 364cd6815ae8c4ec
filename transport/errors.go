package transport

import (
	"errors"
	"fmt"

	"github.com/shortlink-org/go-sdk/remoting/command"
)

var (
	ErrConnectionClosed = errors.New("remoting connection closed")
	ErrClientClosed     = errors.New("remoting client closed")
	ErrInvokeTimeout    = errors.New("remoting invoke timeout")
	ErrDuplicateOpaque  = errors.New("request with the same opaque is already in flight")
)

// RemoteError is a response whose code is not SUCCESS.
type RemoteError struct {
	Remark string
	Code   int32
}

func (e *RemoteError) Error() string {
	if e.Remark == "" {
		return fmt.Sprintf("remote error: code %d", e.Code)
	}

	return fmt.Sprintf("remote error: code %d: %s", e.Code, e.Remark)
}

// CheckResponse returns a *RemoteError unless resp carries SUCCESS.
func CheckResponse(resp *command.RemotingCommand) error {
	if resp.Code == int32(command.Success) {
		return nil
	}

	return &RemoteError{Code: resp.Code, Remark: resp.Remark}
}
