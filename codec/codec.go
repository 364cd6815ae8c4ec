/*
Package codec frames remoting commands on the wire.

	| total length (4) | serialize type (1) + header length (3) | header | body |

All integers are big endian. total length does not count itself.
*/
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/config"
)

// SerializeType selects the header encoding.
type SerializeType byte

const (
	JSON     SerializeType = 0
	ROCKETMQ SerializeType = 1
)

const (
	lengthSize       = 4
	headerLengthSize = 4
	maxHeaderLength  = 1<<24 - 1

	// DefaultMaxFrameSize matches the broker default of 16 MiB.
	DefaultMaxFrameSize = 16 << 20
)

var (
	ErrFrameTooShort        = errors.New("remoting frame too short")
	ErrFrameTooLarge        = errors.New("remoting frame too large")
	ErrUnknownSerializeType = errors.New("unknown serialize type")
)

func (t SerializeType) String() string {
	switch t {
	case JSON:
		return "JSON"
	case ROCKETMQ:
		return "ROCKETMQ"
	default:
		return fmt.Sprintf("SerializeType(%d)", byte(t))
	}
}

// ParseSerializeType accepts "JSON" and "ROCKETMQ", case-insensitive.
func ParseSerializeType(name string) (SerializeType, error) {
	switch strings.ToUpper(name) {
	case "JSON":
		return JSON, nil
	case "ROCKETMQ":
		return ROCKETMQ, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSerializeType, name)
	}
}

// Codec encodes and reads commands with a fixed serialize type and frame limit.
type Codec struct {
	Type         SerializeType
	MaxFrameSize int
}

// New builds a codec from REMOTING_SERIALIZE_TYPE and REMOTING_MAX_FRAME_SIZE.
func New(cfg *config.Config) (*Codec, error) {
	cfg.SetDefault("REMOTING_SERIALIZE_TYPE", "JSON")
	cfg.SetDefault("REMOTING_MAX_FRAME_SIZE", DefaultMaxFrameSize)

	serializeType, err := ParseSerializeType(cfg.GetString("REMOTING_SERIALIZE_TYPE"))
	if err != nil {
		return nil, err
	}

	return &Codec{
		Type:         serializeType,
		MaxFrameSize: cfg.GetInt("REMOTING_MAX_FRAME_SIZE"),
	}, nil
}

func (c *Codec) Encode(cmd *command.RemotingCommand) ([]byte, error) {
	frame, err := Encode(cmd, c.Type)
	if err != nil {
		return nil, err
	}

	if c.MaxFrameSize > 0 && len(frame)-lengthSize > c.MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame)-lengthSize)
	}

	return frame, nil
}

// ReadCommand reads and decodes the next command from r.
func (c *Codec) ReadCommand(r io.Reader) (*command.RemotingCommand, error) {
	frame, err := ReadFrame(r, c.MaxFrameSize)
	if err != nil {
		return nil, err
	}

	return Decode(frame)
}

// Encode renders cmd as a complete frame including the length prefix.
func Encode(cmd *command.RemotingCommand, serializeType SerializeType) ([]byte, error) {
	var (
		hdr []byte
		err error
	)

	switch serializeType {
	case JSON:
		hdr, err = encodeJSONHeader(cmd)
	case ROCKETMQ:
		hdr, err = encodeRocketMQHeader(cmd)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSerializeType, serializeType)
	}

	if err != nil {
		return nil, err
	}

	if len(hdr) > maxHeaderLength {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrFrameTooLarge, len(hdr))
	}

	total := headerLengthSize + len(hdr) + len(cmd.Body)
	frame := make([]byte, lengthSize+total)

	binary.BigEndian.PutUint32(frame[0:4], uint32(total))
	binary.BigEndian.PutUint32(frame[4:8], uint32(serializeType)<<24|uint32(len(hdr)))
	copy(frame[8:], hdr)
	copy(frame[8+len(hdr):], cmd.Body)

	return frame, nil
}

// Decode parses a frame without its length prefix, as returned by ReadFrame.
func Decode(frame []byte) (*command.RemotingCommand, error) {
	if len(frame) < headerLengthSize {
		return nil, ErrFrameTooShort
	}

	mark := binary.BigEndian.Uint32(frame[0:4])
	serializeType := SerializeType(mark >> 24)
	headerLength := int(mark & maxHeaderLength)

	if headerLength > len(frame)-headerLengthSize {
		return nil, fmt.Errorf("%w: header length %d exceeds frame", ErrFrameTooShort, headerLength)
	}

	hdr := frame[headerLengthSize : headerLengthSize+headerLength]

	var (
		cmd *command.RemotingCommand
		err error
	)

	switch serializeType {
	case JSON:
		cmd, err = decodeJSONHeader(hdr)
	case ROCKETMQ:
		cmd, err = decodeRocketMQHeader(hdr)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSerializeType, byte(serializeType))
	}

	if err != nil {
		return nil, err
	}

	if body := frame[headerLengthSize+headerLength:]; len(body) > 0 {
		cmd.Body = append([]byte(nil), body...)
	}

	return cmd, nil
}

// ReadFrame reads one frame from r and returns it without the length prefix.
// maxFrame <= 0 disables the size check.
func ReadFrame(r io.Reader, maxFrame int) ([]byte, error) {
	var prefix [lengthSize]byte

	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := int(binary.BigEndian.Uint32(prefix[:]))

	if size < headerLengthSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, size)
	}

	if maxFrame > 0 && size > maxFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}

	return frame, nil
}
