/*
Package command models a remoting command: the request or response unit
exchanged with name servers and brokers.
*/
package command

import (
	"go.uber.org/atomic"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shortlink-org/go-sdk/remoting/header"
)

// Bit positions inside Flag.
const (
	RPCTypeResponse = 0
	RPCTypeOneway   = 1
)

// requestID starts at 0; the first request gets opaque 0.
var requestID atomic.Int32

// NextRequestID returns a process-wide unique, increasing request id.
func NextRequestID() int32 {
	return requestID.Inc() - 1
}

// RemotingCommand is a single request or response.
type RemotingCommand struct {
	ExtFields header.CommandCustomHeader
	Remark    string
	Body      []byte
	Code      int32
	Version   int32
	Opaque    int32
	Flag      int32
	Language  LanguageCode
}

// CreateRequest builds a request with a fresh opaque.
func CreateRequest(code RequestCode, extFields header.CommandCustomHeader) *RemotingCommand {
	return &RemotingCommand{
		Code:      int32(code),
		Language:  GO,
		Opaque:    NextRequestID(),
		ExtFields: extFields,
	}
}

// CreateResponse builds a response. The caller sets Opaque to the request's.
func CreateResponse(code ResponseCode, extFields header.CommandCustomHeader) *RemotingCommand {
	cmd := &RemotingCommand{
		Code:      int32(code),
		Language:  GO,
		ExtFields: extFields,
	}
	cmd.MarkResponse()

	return cmd
}

// ResponseTo builds a response correlated with req.
func ResponseTo(req *RemotingCommand, code ResponseCode, remark string) *RemotingCommand {
	cmd := CreateResponse(code, nil)
	cmd.Opaque = req.Opaque
	cmd.Remark = remark

	return cmd
}

func (c *RemotingCommand) IsResponse() bool {
	return c.Flag&(1<<RPCTypeResponse) != 0
}

func (c *RemotingCommand) IsOneway() bool {
	return c.Flag&(1<<RPCTypeOneway) != 0
}

func (c *RemotingCommand) MarkResponse() {
	c.Flag |= 1 << RPCTypeResponse
}

func (c *RemotingCommand) MarkOneway() {
	c.Flag |= 1 << RPCTypeOneway
}

// ExtField returns one ext field of the command as a string.
func (c *RemotingCommand) ExtField(key string) (string, bool) {
	if c.ExtFields == nil {
		return "", false
	}

	value, ok := header.FieldsOf(c.ExtFields)[key]

	return value, ok
}

// EncodeHeader writes the command header into root.
//
// version is written only when set, remark only when non-empty and extFields
// only when a custom header is attached.
func (c *RemotingCommand) EncodeHeader(root *structpb.Value) {
	fields := header.StructFields(root)

	fields["code"] = structpb.NewNumberValue(float64(c.Code))
	fields["language"] = structpb.NewStringValue(c.Language.String())

	if c.Version != 0 {
		fields["version"] = structpb.NewNumberValue(float64(c.Version))
	}

	fields["opaque"] = structpb.NewNumberValue(float64(c.Opaque))
	fields["flag"] = structpb.NewNumberValue(float64(c.Flag))

	if c.Remark != "" {
		fields["remark"] = structpb.NewStringValue(c.Remark)
	}

	if c.ExtFields != nil {
		ext := &structpb.Value{}
		c.ExtFields.Encode(ext)
		fields["extFields"] = ext
	}
}
