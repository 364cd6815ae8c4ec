package codec_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/shortlink-org/go-sdk/remoting/codec"
	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/header"
)

// CodecTestSuite runs the same expectations against both header encodings.
type CodecTestSuite struct {
	suite.Suite

	serializeType codec.SerializeType
}

func TestJSONCodecSuite(t *testing.T) {
	suite.Run(t, &CodecTestSuite{serializeType: codec.JSON})
}

func TestRocketMQCodecSuite(t *testing.T) {
	suite.Run(t, &CodecTestSuite{serializeType: codec.ROCKETMQ})
}

func (s *CodecTestSuite) encodeDecode(cmd *command.RemotingCommand) *command.RemotingCommand {
	frame, err := codec.Encode(cmd, s.serializeType)
	s.Require().NoError(err)

	payload, err := codec.ReadFrame(bytes.NewReader(frame), codec.DefaultMaxFrameSize)
	s.Require().NoError(err)

	got, err := codec.Decode(payload)
	s.Require().NoError(err)

	return got
}

func (s *CodecTestSuite) TestRequestWithHeaderAndBody() {
	cmd := &command.RemotingCommand{
		Code:      int32(command.SendMessage),
		Language:  command.GO,
		Version:   317,
		Opaque:    99,
		Remark:    "hello",
		ExtFields: &header.QueryRouteRequestHeader{Topic: "TopicTest"},
		Body:      []byte("payload"),
	}

	got := s.encodeDecode(cmd)

	s.Equal(cmd.Code, got.Code)
	s.Equal(cmd.Language, got.Language)
	s.Equal(cmd.Version, got.Version)
	s.Equal(cmd.Opaque, got.Opaque)
	s.Equal(cmd.Flag, got.Flag)
	s.Equal(cmd.Remark, got.Remark)
	s.Equal(cmd.Body, got.Body)
	s.Equal(header.Fields{"topic": "TopicTest"}, got.ExtFields)
}

func (s *CodecTestSuite) TestResponseWithoutHeader() {
	cmd := command.CreateResponse(command.TopicNotExist, nil)
	cmd.Opaque = 5

	got := s.encodeDecode(cmd)

	s.True(got.IsResponse())
	s.Equal(int32(command.TopicNotExist), got.Code)
	s.Nil(got.ExtFields)
	s.Nil(got.Body)
	s.Empty(got.Remark)
}

func (s *CodecTestSuite) TestFrameLayout() {
	cmd := &command.RemotingCommand{Code: 1, Body: []byte{1, 2, 3}}

	frame, err := codec.Encode(cmd, s.serializeType)
	s.Require().NoError(err)

	total := binary.BigEndian.Uint32(frame[0:4])
	s.Equal(len(frame)-4, int(total))

	mark := binary.BigEndian.Uint32(frame[4:8])
	s.Equal(byte(s.serializeType), byte(mark>>24))

	headerLength := int(mark & 0xFFFFFF)
	s.Equal([]byte{1, 2, 3}, frame[8+headerLength:])
}

func TestJSONHeaderIsReadable(t *testing.T) {
	cmd := &command.RemotingCommand{
		Code:      105,
		Language:  command.GO,
		Opaque:    3,
		ExtFields: &header.QueryRouteRequestHeader{Topic: "t"},
	}

	frame, err := codec.Encode(cmd, codec.JSON)
	require.NoError(t, err)

	headerLength := int(binary.BigEndian.Uint32(frame[4:8]) & 0xFFFFFF)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame[8:8+headerLength], &decoded))

	assert.InDelta(t, float64(105), decoded["code"], 0)
	assert.Equal(t, "GO", decoded["language"])
	assert.InDelta(t, float64(3), decoded["opaque"], 0)
	assert.InDelta(t, float64(0), decoded["flag"], 0)
	assert.Equal(t, map[string]any{"topic": "t"}, decoded["extFields"])
	assert.NotContains(t, decoded, "remark")
	assert.NotContains(t, decoded, "version")
}

func TestDecodeJavaJSONHeader(t *testing.T) {
	hdr := []byte(`{"code":0,"extFields":{"queueId":"1"},"flag":1,"language":"JAVA",` +
		`"opaque":12,"serializeTypeCurrentRPC":"JSON","version":433}`)

	frame := make([]byte, 4+len(hdr))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(hdr)))
	copy(frame[4:], hdr)

	cmd, err := codec.Decode(frame)
	require.NoError(t, err)

	assert.True(t, cmd.IsResponse())
	assert.Equal(t, command.JAVA, cmd.Language)
	assert.Equal(t, int32(12), cmd.Opaque)
	assert.Equal(t, int32(433), cmd.Version)
	assert.Equal(t, header.Fields{"queueId": "1"}, cmd.ExtFields)
}

func TestDecodeErrors(t *testing.T) {
	_, err := codec.Decode([]byte{0, 0})
	require.ErrorIs(t, err, codec.ErrFrameTooShort)

	_, err = codec.Decode([]byte{0, 0, 0, 10, '{'})
	require.ErrorIs(t, err, codec.ErrFrameTooShort)

	_, err = codec.Decode([]byte{7, 0, 0, 0})
	require.ErrorIs(t, err, codec.ErrUnknownSerializeType)

	_, err = codec.Decode([]byte{0, 0, 0, 1, '{'})
	require.ErrorIs(t, err, command.ErrMalformedHeader)

	// ROCKETMQ header truncated after the code
	_, err = codec.Decode([]byte{1, 0, 0, 2, 0, 10})
	require.ErrorIs(t, err, command.ErrMalformedHeader)
}

func TestReadFrameLimits(t *testing.T) {
	_, err := codec.ReadFrame(bytes.NewReader([]byte{0, 0, 0, 2, 0, 0}), 0)
	require.ErrorIs(t, err, codec.ErrFrameTooShort)

	_, err = codec.ReadFrame(bytes.NewReader([]byte{0, 0, 1, 0}), 16)
	require.ErrorIs(t, err, codec.ErrFrameTooLarge)

	_, err = codec.ReadFrame(bytes.NewReader([]byte{0, 0, 0, 8, 0, 0}), 0)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = codec.ReadFrame(bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadsConsecutiveFrames(t *testing.T) {
	var stream bytes.Buffer

	c := &codec.Codec{Type: codec.ROCKETMQ, MaxFrameSize: codec.DefaultMaxFrameSize}

	for opaque := range int32(3) {
		frame, err := c.Encode(&command.RemotingCommand{Code: 11, Opaque: opaque})
		require.NoError(t, err)
		stream.Write(frame)
	}

	for opaque := range int32(3) {
		cmd, err := c.ReadCommand(&stream)
		require.NoError(t, err)
		assert.Equal(t, opaque, cmd.Opaque)
	}
}

func TestCodecRejectsOversizedFrame(t *testing.T) {
	c := &codec.Codec{Type: codec.JSON, MaxFrameSize: 64}

	_, err := c.Encode(&command.RemotingCommand{Code: 1, Body: make([]byte, 128)})
	require.ErrorIs(t, err, codec.ErrFrameTooLarge)
}

func TestRocketMQRejectsWideCode(t *testing.T) {
	_, err := codec.Encode(&command.RemotingCommand{Code: 1 << 20}, codec.ROCKETMQ)
	require.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	c, err := codec.New(config.NewFromMap(nil))
	require.NoError(t, err)
	assert.Equal(t, codec.JSON, c.Type)
	assert.Equal(t, codec.DefaultMaxFrameSize, c.MaxFrameSize)

	c, err = codec.New(config.NewFromMap(map[string]any{
		"REMOTING_SERIALIZE_TYPE": "rocketmq",
		"REMOTING_MAX_FRAME_SIZE": 1024,
	}))
	require.NoError(t, err)
	assert.Equal(t, codec.ROCKETMQ, c.Type)
	assert.Equal(t, 1024, c.MaxFrameSize)

	_, err = codec.New(config.NewFromMap(map[string]any{"REMOTING_SERIALIZE_TYPE": "xml"}))
	require.ErrorIs(t, err, codec.ErrUnknownSerializeType)
}

func TestSerializeTypeString(t *testing.T) {
	assert.Equal(t, "JSON", codec.JSON.String())
	assert.Equal(t, "ROCKETMQ", codec.ROCKETMQ.String())
	assert.Equal(t, "SerializeType(9)", codec.SerializeType(9).String())
}
