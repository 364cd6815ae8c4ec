package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shortlink-org/go-sdk/remoting/route"
)

// Body as returned by a name server: broker ids are bare integers.
const nameServerBody = `{"brokerDatas":[` +
	`{"brokerAddrs":{0:"10.0.0.2:10911",1:"10.0.0.3:10911"},"brokerName":"broker-b","cluster":"DefaultCluster"},` +
	`{"brokerAddrs":{1:"10.0.0.5:10911"},"brokerName":"broker-c","cluster":"DefaultCluster"},` +
	`{"brokerAddrs":{0:"10.0.0.1:10911"},"brokerName":"broker-a","cluster":"DefaultCluster"}],` +
	`"filterServerTable":{},` +
	`"queueDatas":[` +
	`{"brokerName":"broker-b","perm":6,"readQueueNums":2,"topicSysFlag":0,"writeQueueNums":2},` +
	`{"brokerName":"broker-c","perm":6,"readQueueNums":1,"topicSysFlag":0,"writeQueueNums":1},` +
	`{"brokerName":"broker-a","perm":4,"readQueueNums":1,"topicSysFlag":0,"writeQueueNums":3}]}`

func TestDecodeTopicRouteData(t *testing.T) {
	data, err := route.DecodeTopicRouteData([]byte(nameServerBody))
	require.NoError(t, err)

	require.Len(t, data.BrokerDatas, 3)
	require.Len(t, data.QueueDatas, 3)

	broker, ok := data.Broker("broker-b")
	require.True(t, ok)
	assert.Equal(t, "DefaultCluster", broker.Cluster)
	assert.Equal(t, map[int64]string{0: "10.0.0.2:10911", 1: "10.0.0.3:10911"}, broker.BrokerAddresses)

	master, ok := broker.MasterAddress()
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.2:10911", master)

	assert.Equal(t, route.QueueData{
		BrokerName:     "broker-b",
		ReadQueueNums:  2,
		WriteQueueNums: 2,
		Perm:           6,
	}, data.QueueDatas[0])
}

func TestQueues(t *testing.T) {
	data, err := route.DecodeTopicRouteData([]byte(nameServerBody))
	require.NoError(t, err)

	// broker-a is read only, broker-c has no master
	assert.Equal(t, []route.MessageQueue{
		{Topic: "t", BrokerName: "broker-b", QueueID: 0},
		{Topic: "t", BrokerName: "broker-b", QueueID: 1},
	}, data.WritableQueues("t"))

	assert.Equal(t, []route.MessageQueue{
		{Topic: "t", BrokerName: "broker-a", QueueID: 0},
		{Topic: "t", BrokerName: "broker-b", QueueID: 0},
		{Topic: "t", BrokerName: "broker-b", QueueID: 1},
		{Topic: "t", BrokerName: "broker-c", QueueID: 0},
	}, data.ReadableQueues("t"))
}

func TestDecodeStandardJSON(t *testing.T) {
	body := `{"brokerDatas":[{"brokerAddrs":{"0":"a:1"},"brokerName":"b","cluster":"c"}],"queueDatas":[]}`

	data, err := route.DecodeTopicRouteData([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "a:1", data.BrokerDatas[0].BrokerAddresses[0])
	assert.Empty(t, data.QueueDatas)
}

func TestStringsWithDigitsAreKept(t *testing.T) {
	body := `{"orderTopicConf":"broker-a:4,5:1","brokerDatas":[],"queueDatas":[]}`

	data, err := route.DecodeTopicRouteData([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "broker-a:4,5:1", data.OrderTopicConf)
}

func TestDecodeBrokerData(t *testing.T) {
	st, err := structpb.NewStruct(map[string]any{
		"cluster":     "c",
		"brokerName":  "b",
		"brokerAddrs": map[string]any{"0": "m:1", "2": "s:1"},
	})
	require.NoError(t, err)

	data, err := route.DecodeBrokerData(st)
	require.NoError(t, err)
	assert.Equal(t, route.BrokerData{
		Cluster:         "c",
		BrokerName:      "b",
		BrokerAddresses: map[int64]string{0: "m:1", 2: "s:1"},
	}, data)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"bad broker id":  `{"brokerDatas":[{"brokerAddrs":{"x":"a"}}]}`,
		"negative nums":  `{"queueDatas":[{"brokerName":"b","readQueueNums":-1}]}`,
		"fraction":       `{"queueDatas":[{"brokerName":"b","perm":1.5}]}`,
		"scalar entries": `{"queueDatas":[1]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := route.DecodeTopicRouteData([]byte(body))
			require.ErrorIs(t, err, route.ErrInvalidRoute)
		})
	}
}

func TestPermissions(t *testing.T) {
	qd := route.QueueData{Perm: route.PermRead | route.PermWrite}
	assert.True(t, qd.Readable())
	assert.True(t, qd.Writable())

	qd.Perm = route.PermInherit
	assert.False(t, qd.Readable())
	assert.False(t, qd.Writable())
}
