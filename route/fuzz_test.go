package route_test

import (
	"testing"

	"github.com/shortlink-org/go-sdk/remoting/route"
)

// Fuzz test for DecodeTopicRouteData: arbitrary bodies must never panic
func FuzzDecodeTopicRouteData(f *testing.F) {
	f.Add([]byte(`{"queueDatas":[],"brokerDatas":[{"brokerName":"a","brokerAddrs":{0:"h:1"}}]}`))
	f.Add([]byte(`{"brokerAddrs":{"0":"x","1":0}}`))
	f.Add([]byte(`{"a":"{0:1}"}`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, body []byte) {
		data, err := route.DecodeTopicRouteData(body)
		if err == nil && data == nil {
			t.Error("DecodeTopicRouteData returned neither data nor an error")
		}
	})
}
