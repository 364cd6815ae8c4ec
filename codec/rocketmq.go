package codec

import (
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/header"
)

// ROCKETMQ header layout:
//
//	code(2) language(1) version(2) opaque(4) flag(4)
//	remarkLen(4) remark extLen(4) ext
//
// ext is a sequence of keyLen(2) key valLen(4) val.
const rocketMQFixedSize = 2 + 1 + 2 + 4 + 4 + 4 + 4

func encodeRocketMQHeader(cmd *command.RemotingCommand) ([]byte, error) {
	if cmd.Code < math.MinInt16 || cmd.Code > math.MaxInt16 {
		return nil, fmt.Errorf("code %d does not fit the ROCKETMQ header", cmd.Code)
	}

	if cmd.Version < math.MinInt16 || cmd.Version > math.MaxInt16 {
		return nil, fmt.Errorf("version %d does not fit the ROCKETMQ header", cmd.Version)
	}

	ext, err := encodeExtFields(header.FieldsOf(cmd.ExtFields))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, rocketMQFixedSize+len(cmd.Remark)+len(ext))
	buf = binary.BigEndian.AppendUint16(buf, uint16(int16(cmd.Code)))
	buf = append(buf, byte(cmd.Language))
	buf = binary.BigEndian.AppendUint16(buf, uint16(int16(cmd.Version)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(cmd.Opaque))
	buf = binary.BigEndian.AppendUint32(buf, uint32(cmd.Flag))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(cmd.Remark)))
	buf = append(buf, cmd.Remark...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(ext)))
	buf = append(buf, ext...)

	return buf, nil
}

func encodeExtFields(fields map[string]string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	var buf []byte

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if len(key) > math.MaxInt16 {
			return nil, fmt.Errorf("ext field key of %d bytes is too long", len(key))
		}

		value := fields[key]

		buf = binary.BigEndian.AppendUint16(buf, uint16(len(key)))
		buf = append(buf, key...)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(value)))
		buf = append(buf, value...)
	}

	return buf, nil
}

func decodeRocketMQHeader(hdr []byte) (*command.RemotingCommand, error) {
	r := reader{buf: hdr}

	cmd := &command.RemotingCommand{
		Code:     int32(int16(r.uint16())),
		Language: command.LanguageCode(r.byte()),
		Version:  int32(int16(r.uint16())),
		Opaque:   int32(r.uint32()),
		Flag:     int32(r.uint32()),
	}

	cmd.Remark = string(r.bytes(int(r.uint32())))

	ext := r.bytes(int(r.uint32()))

	if r.err != nil {
		return nil, r.err
	}

	if len(ext) > 0 {
		fields, err := decodeExtFields(ext)
		if err != nil {
			return nil, err
		}

		cmd.ExtFields = fields
	}

	return cmd, nil
}

func decodeExtFields(ext []byte) (header.Fields, error) {
	r := reader{buf: ext}
	fields := header.Fields{}

	for r.remaining() > 0 && r.err == nil {
		key := string(r.bytes(int(r.uint16())))
		value := string(r.bytes(int(r.uint32())))

		if r.err == nil {
			fields[key] = value
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	return fields, nil
}

// reader consumes big endian values and records the first overrun.
type reader struct {
	err error
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || n > r.remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", command.ErrMalformedHeader, n, r.off, r.remaining())

		return nil
	}

	b := r.buf[r.off : r.off+n]
	r.off += n

	return b
}

func (r *reader) byte() byte {
	if b := r.bytes(1); b != nil {
		return b[0]
	}

	return 0
}

func (r *reader) uint16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}

	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}

	return 0
}
