/*
Package route decodes topic routes returned by name servers.
*/
package route

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// MasterID is the broker id of a master inside BrokerData.BrokerAddresses.
const MasterID int64 = 0

// Queue permissions.
const (
	PermInherit = 1 << 0
	PermWrite   = 1 << 1
	PermRead    = 1 << 2
)

// ErrInvalidRoute is returned when route data does not have the expected shape.
var ErrInvalidRoute = errors.New("invalid route data")

type BrokerData struct {
	BrokerAddresses map[int64]string `json:"brokerAddrs"`
	Cluster         string           `json:"cluster"`
	BrokerName      string           `json:"brokerName"`
}

type QueueData struct {
	BrokerName     string `json:"brokerName"`
	ReadQueueNums  int32  `json:"readQueueNums"`
	WriteQueueNums int32  `json:"writeQueueNums"`
	Perm           int32  `json:"perm"`
	TopicSysFlag   int32  `json:"topicSysFlag"`
}

type TopicRouteData struct {
	OrderTopicConf string       `json:"orderTopicConf,omitempty"`
	QueueDatas     []QueueData  `json:"queueDatas"`
	BrokerDatas    []BrokerData `json:"brokerDatas"`
}

// MessageQueue addresses one queue of a topic on a broker.
type MessageQueue struct {
	Topic      string `json:"topic"`
	BrokerName string `json:"brokerName"`
	QueueID    int32  `json:"queueId"`
}

// MasterAddress returns the address of the master broker.
func (b *BrokerData) MasterAddress() (string, bool) {
	addr, ok := b.BrokerAddresses[MasterID]

	return addr, ok && addr != ""
}

func (q *QueueData) Readable() bool {
	return q.Perm&PermRead != 0
}

func (q *QueueData) Writable() bool {
	return q.Perm&PermWrite != 0
}

// Broker returns the broker data for name.
func (t *TopicRouteData) Broker(name string) (*BrokerData, bool) {
	for i := range t.BrokerDatas {
		if t.BrokerDatas[i].BrokerName == name {
			return &t.BrokerDatas[i], true
		}
	}

	return nil, false
}

// WritableQueues lists the queues producers may send to, ordered by broker then queue id.
// Brokers without a master address are skipped.
func (t *TopicRouteData) WritableQueues(topic string) []MessageQueue {
	var queues []MessageQueue

	for _, qd := range t.sortedQueueDatas() {
		if !qd.Writable() {
			continue
		}

		broker, ok := t.Broker(qd.BrokerName)
		if !ok {
			continue
		}

		if _, ok := broker.MasterAddress(); !ok {
			continue
		}

		for id := range qd.WriteQueueNums {
			queues = append(queues, MessageQueue{Topic: topic, BrokerName: qd.BrokerName, QueueID: id})
		}
	}

	return queues
}

// ReadableQueues lists the queues consumers may pull from.
func (t *TopicRouteData) ReadableQueues(topic string) []MessageQueue {
	var queues []MessageQueue

	for _, qd := range t.sortedQueueDatas() {
		if !qd.Readable() {
			continue
		}

		for id := range qd.ReadQueueNums {
			queues = append(queues, MessageQueue{Topic: topic, BrokerName: qd.BrokerName, QueueID: id})
		}
	}

	return queues
}

func (t *TopicRouteData) sortedQueueDatas() []QueueData {
	sorted := slices.Clone(t.QueueDatas)
	slices.SortStableFunc(sorted, func(a, b QueueData) int {
		return strings.Compare(a.BrokerName, b.BrokerName)
	})

	return sorted
}

// DecodeTopicRouteData parses the body of a GET_ROUTEINFO_BY_TOPIC response.
// Bare integer object keys, as emitted by name servers, are accepted.
func DecodeTopicRouteData(body []byte) (*TopicRouteData, error) {
	root := &structpb.Struct{}

	if err := protojson.Unmarshal(quoteIntegerKeys(body), root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}

	return DecodeTopicRoute(root)
}

// DecodeTopicRoute reads a topic route from a decoded struct.
func DecodeTopicRoute(root *structpb.Struct) (*TopicRouteData, error) {
	fields := root.GetFields()
	data := &TopicRouteData{
		OrderTopicConf: fields["orderTopicConf"].GetStringValue(),
	}

	for _, item := range fields["queueDatas"].GetListValue().GetValues() {
		st := item.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("%w: queueDatas entry is not an object", ErrInvalidRoute)
		}

		qd, err := DecodeQueueData(st)
		if err != nil {
			return nil, err
		}

		data.QueueDatas = append(data.QueueDatas, qd)
	}

	for _, item := range fields["brokerDatas"].GetListValue().GetValues() {
		st := item.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("%w: brokerDatas entry is not an object", ErrInvalidRoute)
		}

		bd, err := DecodeBrokerData(st)
		if err != nil {
			return nil, err
		}

		data.BrokerDatas = append(data.BrokerDatas, bd)
	}

	return data, nil
}

// DecodeBrokerData reads cluster, brokerName and brokerAddrs.
func DecodeBrokerData(root *structpb.Struct) (BrokerData, error) {
	fields := root.GetFields()

	data := BrokerData{
		Cluster:         fields["cluster"].GetStringValue(),
		BrokerName:      fields["brokerName"].GetStringValue(),
		BrokerAddresses: make(map[int64]string),
	}

	for key, value := range fields["brokerAddrs"].GetStructValue().GetFields() {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return BrokerData{}, fmt.Errorf("%w: broker id %q", ErrInvalidRoute, key)
		}

		data.BrokerAddresses[id] = value.GetStringValue()
	}

	return data, nil
}

func DecodeQueueData(root *structpb.Struct) (QueueData, error) {
	fields := root.GetFields()
	data := QueueData{BrokerName: fields["brokerName"].GetStringValue()}

	targets := []struct {
		dst *int32
		key string
	}{
		{&data.ReadQueueNums, "readQueueNums"},
		{&data.WriteQueueNums, "writeQueueNums"},
		{&data.Perm, "perm"},
		{&data.TopicSysFlag, "topicSysFlag"},
	}

	for _, target := range targets {
		value, ok := fields[target.key]
		if !ok {
			continue
		}

		n := value.GetNumberValue()
		if n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
			return QueueData{}, fmt.Errorf("%w: %s=%v", ErrInvalidRoute, target.key, n)
		}

		*target.dst = int32(n)
	}

	return data, nil
}
