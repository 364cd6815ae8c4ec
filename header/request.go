package header

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryRouteRequestHeader asks a name server for the route of a topic.
type QueryRouteRequestHeader struct {
	Topic string
}

func (h *QueryRouteRequestHeader) Encode(root *structpb.Value) {
	writer(StructFields(root)).str("topic", h.Topic)
}

// SendMessageRequestHeader carries the metadata of a produced message.
type SendMessageRequestHeader struct {
	ProducerGroup         string
	Topic                 string
	DefaultTopic          string
	DefaultTopicQueueNums int32
	QueueID               int32
	SysFlag               int32
	BornTimestamp         int64
	Flag                  int32
	Properties            string
	ReconsumeTimes        *int32
	UnitMode              bool
	Batch                 bool
	MaxReconsumeTimes     *int32
}

func (h *SendMessageRequestHeader) Encode(root *structpb.Value) {
	w := writer(StructFields(root))

	w.str("producerGroup", h.ProducerGroup)
	w.str("topic", h.Topic)
	w.str("defaultTopic", h.DefaultTopic)
	w.int32("defaultTopicQueueNums", h.DefaultTopicQueueNums)
	w.int32("queueId", h.QueueID)
	w.int32("sysFlag", h.SysFlag)
	w.int64("bornTimestamp", h.BornTimestamp)
	w.int32("flag", h.Flag)
	w.optStr("properties", h.Properties)
	w.optInt32("reconsumeTimes", h.ReconsumeTimes)
	w.bool("unitMode", h.UnitMode)
	w.bool("batch", h.Batch)
	w.optInt32("maxReconsumeTimes", h.MaxReconsumeTimes)
}

// PullMessageRequestHeader requests messages from one queue.
type PullMessageRequestHeader struct {
	ConsumerGroup        string
	Topic                string
	QueueID              int32
	QueueOffset          int64
	MaxMsgNums           int32
	SysFlag              int32
	CommitOffset         int64
	SuspendTimeoutMillis int64
	Subscription         string
	SubVersion           int64
	ExpressionType       string
}

func (h *PullMessageRequestHeader) Encode(root *structpb.Value) {
	w := writer(StructFields(root))

	w.str("consumerGroup", h.ConsumerGroup)
	w.str("topic", h.Topic)
	w.int32("queueId", h.QueueID)
	w.int64("queueOffset", h.QueueOffset)
	w.int32("maxMsgNums", h.MaxMsgNums)
	w.int32("sysFlag", h.SysFlag)
	w.int64("commitOffset", h.CommitOffset)
	w.int64("suspendTimeoutMillis", h.SuspendTimeoutMillis)
	w.optStr("subscription", h.Subscription)
	w.int64("subVersion", h.SubVersion)
	w.optStr("expressionType", h.ExpressionType)
}

type QueryConsumerOffsetRequestHeader struct {
	ConsumerGroup string
	Topic         string
	QueueID       int32
}

func (h *QueryConsumerOffsetRequestHeader) Encode(root *structpb.Value) {
	w := writer(StructFields(root))

	w.str("consumerGroup", h.ConsumerGroup)
	w.str("topic", h.Topic)
	w.int32("queueId", h.QueueID)
}

type UpdateConsumerOffsetRequestHeader struct {
	ConsumerGroup string
	Topic         string
	QueueID       int32
	CommitOffset  int64
}

func (h *UpdateConsumerOffsetRequestHeader) Encode(root *structpb.Value) {
	w := writer(StructFields(root))

	w.str("consumerGroup", h.ConsumerGroup)
	w.str("topic", h.Topic)
	w.int32("queueId", h.QueueID)
	w.int64("commitOffset", h.CommitOffset)
}

type GetConsumerListByGroupRequestHeader struct {
	ConsumerGroup string
}

func (h *GetConsumerListByGroupRequestHeader) Encode(root *structpb.Value) {
	writer(StructFields(root)).str("consumerGroup", h.ConsumerGroup)
}
