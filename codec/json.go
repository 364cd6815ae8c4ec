package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shortlink-org/go-sdk/remoting/command"
)

var jsonOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

func encodeJSONHeader(cmd *command.RemotingCommand) ([]byte, error) {
	root := &structpb.Value{}
	cmd.EncodeHeader(root)

	hdr, err := protojson.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	return hdr, nil
}

func decodeJSONHeader(hdr []byte) (*command.RemotingCommand, error) {
	root := &structpb.Value{}

	if err := jsonOptions.Unmarshal(hdr, root); err != nil {
		return nil, fmt.Errorf("%w: %w", command.ErrMalformedHeader, err)
	}

	return command.DecodeHeader(root)
}
