package validation

import (
	"errors"
	"fmt"

	"github.com/shortlink-org/go-sdk/remoting/command"
	"github.com/shortlink-org/go-sdk/remoting/header"
)

// MaxTopicLength is the longest topic name brokers accept.
const MaxTopicLength = 127

var (
	ErrEmptyTopic        = errors.New("topic is empty")
	ErrTopicTooLong      = errors.New("topic is too long")
	ErrTopicIllegalChars = errors.New("topic contains illegal characters")
	ErrEmptyGroup        = errors.New("group is empty")
	ErrBodyTooLarge      = errors.New("body is too large")
	ErrEmptyBody         = errors.New("body is empty")
	ErrNotARequest       = errors.New("command is a response")
)

// Topic is the name of a topic under validation.
type Topic string

// Group is the name of a producer or consumer group under validation.
type Group string

// TopicNotEmpty rejects empty topics.
var TopicNotEmpty = Func[Topic](func(t *Topic) error {
	if *t == "" {
		return ErrEmptyTopic
	}

	return nil
})

// TopicMaxLength rejects topics longer than MaxTopicLength.
var TopicMaxLength = Func[Topic](func(t *Topic) error {
	if len(*t) > MaxTopicLength {
		return fmt.Errorf("%w: %d > %d", ErrTopicTooLong, len(*t), MaxTopicLength)
	}

	return nil
})

// TopicCharset allows [%|a-zA-Z0-9_-].
var TopicCharset = Func[Topic](func(t *Topic) error {
	for _, r := range *t {
		if !legalTopicRune(r) {
			return fmt.Errorf("%w: %q", ErrTopicIllegalChars, string(*t))
		}
	}

	return nil
})

func legalTopicRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '%', r == '|', r == '_', r == '-':
		return true
	default:
		return false
	}
}

var GroupNotEmpty = Func[Group](func(g *Group) error {
	if *g == "" {
		return ErrEmptyGroup
	}

	return nil
})

// ValidTopic combines every topic rule.
func ValidTopic() Specification[Topic] {
	return And[Topic](TopicNotEmpty, TopicMaxLength, TopicCharset)
}

// BodyMaxSize rejects commands whose body exceeds limit bytes.
func BodyMaxSize(limit int) Specification[command.RemotingCommand] {
	return Func[command.RemotingCommand](func(cmd *command.RemotingCommand) error {
		if len(cmd.Body) > limit {
			return fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, len(cmd.Body), limit)
		}

		return nil
	})
}

var BodyNotEmpty = Func[command.RemotingCommand](func(cmd *command.RemotingCommand) error {
	if len(cmd.Body) == 0 {
		return ErrEmptyBody
	}

	return nil
})

// IsRequest rejects response commands.
var IsRequest = Func[command.RemotingCommand](func(cmd *command.RemotingCommand) error {
	if cmd.IsResponse() {
		return ErrNotARequest
	}

	return nil
})

// HeaderRules validates the topic and group fields of a request header.
// Fields absent from the header are not checked.
var HeaderRules = Func[command.RemotingCommand](func(cmd *command.RemotingCommand) error {
	fields := header.FieldsOf(cmd.ExtFields)

	var errs error

	if topic, ok := fields["topic"]; ok {
		t := Topic(topic)
		errs = errors.Join(errs, ValidTopic().IsSatisfiedBy(&t))
	}

	for _, key := range []string{"producerGroup", "consumerGroup"} {
		if group, ok := fields[key]; ok {
			g := Group(group)
			if err := GroupNotEmpty.IsSatisfiedBy(&g); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	return errs
})

// Request is the default check for outgoing requests.
func Request(maxBody int) Specification[command.RemotingCommand] {
	return And[command.RemotingCommand](IsRequest, HeaderRules, BodyMaxSize(maxBody))
}

// SendMessage additionally requires a body.
func SendMessage(maxBody int) Specification[command.RemotingCommand] {
	return And[command.RemotingCommand](Request(maxBody), BodyNotEmpty)
}
