package command_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/header"
)

func TestNextRequestIDIsUniqueAcrossGoroutines(t *testing.T) {
	const (
		workers = 8
		perWork = 200
	)

	var (
		mu   sync.Mutex
		seen = make(map[int32]struct{}, workers*perWork)
		wg   sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range perWork {
				id := command.NextRequestID()

				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Len(t, seen, workers*perWork)
}

func TestNextRequestIDIncreases(t *testing.T) {
	first := command.NextRequestID()
	second := command.NextRequestID()

	assert.Greater(t, second, first)
}

func TestCreateRequest(t *testing.T) {
	h := &header.QueryRouteRequestHeader{Topic: "t"}
	req := command.CreateRequest(command.GetRouteInfoByTopic, h)

	assert.Equal(t, int32(105), req.Code)
	assert.Equal(t, command.GO, req.Language)
	assert.Equal(t, int32(0), req.Flag)
	assert.False(t, req.IsResponse())
	assert.False(t, req.IsOneway())
	assert.Same(t, h, req.ExtFields)

	next := command.CreateRequest(command.GetRouteInfoByTopic, nil)
	assert.Greater(t, next.Opaque, req.Opaque)
}

func TestCreateResponse(t *testing.T) {
	resp := command.CreateResponse(command.TopicNotExist, nil)

	assert.Equal(t, int32(17), resp.Code)
	assert.True(t, resp.IsResponse())
	assert.Equal(t, int32(1), resp.Flag)
}

func TestMarkOneway(t *testing.T) {
	req := command.CreateRequest(command.HeartBeat, nil)
	req.MarkOneway()

	assert.True(t, req.IsOneway())
	assert.False(t, req.IsResponse())
	assert.Equal(t, int32(2), req.Flag)
}

func TestResponseTo(t *testing.T) {
	req := command.CreateRequest(command.GetConsumerRunningInfo, nil)
	resp := command.ResponseTo(req, command.RequestCodeNotSupported, "not supported")

	assert.Equal(t, req.Opaque, resp.Opaque)
	assert.True(t, resp.IsResponse())
	assert.Equal(t, "not supported", resp.Remark)
}

func TestEncodeHeaderMinimal(t *testing.T) {
	cmd := &command.RemotingCommand{Code: 105, Language: command.GO, Opaque: 7}

	root := &structpb.Value{}
	cmd.EncodeHeader(root)

	fields := root.GetStructValue().GetFields()
	assert.Len(t, fields, 4)
	assert.InDelta(t, 105, fields["code"].GetNumberValue(), 0)
	assert.Equal(t, "GO", fields["language"].GetStringValue())
	assert.InDelta(t, 7, fields["opaque"].GetNumberValue(), 0)
	assert.InDelta(t, 0, fields["flag"].GetNumberValue(), 0)
	assert.NotContains(t, fields, "version")
	assert.NotContains(t, fields, "remark")
	assert.NotContains(t, fields, "extFields")
}

func TestEncodeHeaderFull(t *testing.T) {
	cmd := &command.RemotingCommand{
		Code:      10,
		Language:  command.JAVA,
		Version:   317,
		Opaque:    3,
		Flag:      1,
		Remark:    "ok",
		ExtFields: &header.QueryRouteRequestHeader{Topic: "t"},
	}

	root := &structpb.Value{}
	cmd.EncodeHeader(root)

	fields := root.GetStructValue().GetFields()
	assert.InDelta(t, 317, fields["version"].GetNumberValue(), 0)
	assert.Equal(t, "ok", fields["remark"].GetStringValue())
	assert.Equal(t, "JAVA", fields["language"].GetStringValue())
	assert.Equal(t, "t", fields["extFields"].GetStructValue().GetFields()["topic"].GetStringValue())
}

func TestLanguageNames(t *testing.T) {
	assert.Equal(t, "CPP", command.CPP.String())
	assert.Equal(t, "DOTNET", command.DOTNET.String())
	assert.Equal(t, "RUST", command.RUST.String())
	assert.Equal(t, "OTHER", command.LanguageCode(200).String())

	assert.Equal(t, command.GO, command.ParseLanguage("GO"))
	assert.Equal(t, command.OTHER, command.ParseLanguage("COBOL"))
}

func TestDecodeHeaderRoundTrip(t *testing.T) {
	src := &command.RemotingCommand{
		Code:      11,
		Language:  command.GO,
		Version:   1,
		Opaque:    42,
		Flag:      1,
		Remark:    "r",
		ExtFields: &header.QueryConsumerOffsetRequestHeader{ConsumerGroup: "cg", Topic: "t", QueueID: 2},
	}

	root := &structpb.Value{}
	src.EncodeHeader(root)

	got, err := command.DecodeHeader(root)
	require.NoError(t, err)

	assert.Equal(t, src.Code, got.Code)
	assert.Equal(t, src.Language, got.Language)
	assert.Equal(t, src.Version, got.Version)
	assert.Equal(t, src.Opaque, got.Opaque)
	assert.Equal(t, src.Flag, got.Flag)
	assert.Equal(t, src.Remark, got.Remark)
	assert.Equal(t, header.Fields{"consumerGroup": "cg", "topic": "t", "queueId": "2"}, got.ExtFields)

	queueID, ok := got.ExtField("queueId")
	assert.True(t, ok)
	assert.Equal(t, "2", queueID)
}

func TestDecodeHeaderErrors(t *testing.T) {
	cases := map[string]map[string]any{
		"missing code":   {"opaque": 1},
		"missing opaque": {"code": 1},
		"string code":    {"code": "1", "opaque": 1},
		"fraction":       {"code": 1.5, "opaque": 1},
		"overflow":       {"code": 1, "opaque": float64(1 << 40)},
	}

	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			root, err := structpb.NewValue(fields)
			require.NoError(t, err)

			_, err = command.DecodeHeader(root)
			require.ErrorIs(t, err, command.ErrMalformedHeader)
		})
	}

	_, err := command.DecodeHeader(structpb.NewStringValue("x"))
	require.ErrorIs(t, err, command.ErrMalformedHeader)
}

func TestEncodeHeaderKeepsExistingFields(t *testing.T) {
	root, err := structpb.NewValue(map[string]any{"serializeTypeCurrentRPC": "JSON"})
	require.NoError(t, err)

	(&command.RemotingCommand{Code: 105, Language: command.GO, Opaque: 1}).EncodeHeader(root)

	fields := root.GetStructValue().GetFields()
	assert.Equal(t, "JSON", fields["serializeTypeCurrentRPC"].GetStringValue())
	assert.InDelta(t, 105, fields["code"].GetNumberValue(), 0)
}
