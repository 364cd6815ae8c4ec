package codec_test

import (
	"testing"

	"github.com/shortlink-org/go-sdk/remoting/codec"
	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/header"
)

// Fuzz test for Decode: arbitrary frames must never panic
func FuzzDecode(f *testing.F) {
	cmd := command.CreateRequest(command.GetRouteInfoByTopic, &header.QueryRouteRequestHeader{Topic: "orders"})
	cmd.Body = []byte("body")

	for _, st := range []codec.SerializeType{codec.JSON, codec.ROCKETMQ} {
		frame, err := codec.Encode(cmd, st)
		if err != nil {
			f.Fatal(err)
		}

		f.Add(frame[4:])
	}

	f.Add([]byte{})
	f.Add([]byte{1, 0, 0, 200})

	f.Fuzz(func(t *testing.T, frame []byte) {
		decoded, err := codec.Decode(frame)
		if err == nil && decoded == nil {
			t.Error("Decode returned neither a command nor an error")
		}
	})
}
