package command

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shortlink-org/go-sdk/remoting/header"
)

// ErrMalformedHeader is returned when a decoded header misses mandatory fields
// or carries values of the wrong type.
var ErrMalformedHeader = errors.New("malformed remoting header")

// DecodeHeader builds a command from a header value produced by EncodeHeader
// or by a peer. Ext fields are returned as header.Fields.
func DecodeHeader(root *structpb.Value) (*RemotingCommand, error) {
	fields := root.GetStructValue().GetFields()
	if fields == nil {
		return nil, fmt.Errorf("%w: header is not an object", ErrMalformedHeader)
	}

	cmd := &RemotingCommand{}

	var err error

	if cmd.Code, err = int32Field(fields, "code", true); err != nil {
		return nil, err
	}

	if cmd.Version, err = int32Field(fields, "version", false); err != nil {
		return nil, err
	}

	if cmd.Opaque, err = int32Field(fields, "opaque", true); err != nil {
		return nil, err
	}

	if cmd.Flag, err = int32Field(fields, "flag", false); err != nil {
		return nil, err
	}

	cmd.Language = OTHER
	if language, ok := fields["language"]; ok {
		cmd.Language = ParseLanguage(language.GetStringValue())
	}

	if remark, ok := fields["remark"]; ok {
		cmd.Remark = remark.GetStringValue()
	}

	if ext, ok := fields["extFields"]; ok && ext.GetStructValue() != nil {
		cmd.ExtFields = header.FieldsFromValue(ext)
	}

	return cmd, nil
}

func int32Field(fields map[string]*structpb.Value, key string, required bool) (int32, error) {
	value, ok := fields[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%w: missing %q", ErrMalformedHeader, key)
		}

		return 0, nil
	}

	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedHeader, key)
	}

	n := number.NumberValue
	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q out of int32 range", ErrMalformedHeader, key)
	}

	return int32(n), nil
}
