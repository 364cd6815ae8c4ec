package command

// LanguageCode identifies the implementation language of the peer.
type LanguageCode uint8

const (
	JAVA LanguageCode = iota
	CPP
	DOTNET
	PYTHON
	DELPHI
	ERLANG
	RUBY
	OTHER
	HTTP
	GO
	PHP
	OMS
	RUST
)

var languageNames = map[LanguageCode]string{
	JAVA:   "JAVA",
	CPP:    "CPP",
	DOTNET: "DOTNET",
	PYTHON: "PYTHON",
	DELPHI: "DELPHI",
	ERLANG: "ERLANG",
	RUBY:   "RUBY",
	OTHER:  "OTHER",
	HTTP:   "HTTP",
	GO:     "GO",
	PHP:    "PHP",
	OMS:    "OMS",
	RUST:   "RUST",
}

func (l LanguageCode) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}

	return "OTHER"
}

// ParseLanguage maps a language name back to its code. Unknown names are OTHER.
func ParseLanguage(name string) LanguageCode {
	for code, n := range languageNames {
		if n == name {
			return code
		}
	}

	return OTHER
}

// RequestCode is the operation requested by a command.
type RequestCode int32

const (
	SendMessage                   RequestCode = 10
	PullMessage                   RequestCode = 11
	QueryConsumerOffset           RequestCode = 14
	UpdateConsumerOffset          RequestCode = 15
	HeartBeat                     RequestCode = 34
	UnregisterClient              RequestCode = 35
	GetConsumerListByGroup        RequestCode = 38
	NotifyConsumerIdsChanged      RequestCode = 40
	CheckTransactionState         RequestCode = 39
	ResetConsumerClientOffset     RequestCode = 220
	GetConsumerRunningInfo        RequestCode = 307
	ConsumeMessageDirectly        RequestCode = 309
	SendMessageV2                 RequestCode = 310
	GetRouteInfoByTopic           RequestCode = 105
	GetBrokerClusterInfo          RequestCode = 106
	GetAllTopicListFromNameServer RequestCode = 206
)

// ResponseCode is the outcome carried by a response command.
type ResponseCode int32

const (
	Success                 ResponseCode = 0
	SystemError             ResponseCode = 1
	SystemBusy              ResponseCode = 2
	RequestCodeNotSupported ResponseCode = 3
	FlushDiskTimeout        ResponseCode = 10
	SlaveNotAvailable       ResponseCode = 11
	FlushSlaveTimeout       ResponseCode = 12
	MessageIllegal          ResponseCode = 13
	ServiceNotAvailable     ResponseCode = 14
	NoPermission            ResponseCode = 16
	TopicNotExist           ResponseCode = 17
	PullNotFound            ResponseCode = 19
	PullRetryImmediately    ResponseCode = 20
	PullOffsetMoved         ResponseCode = 21
	QueryNotFound           ResponseCode = 22
)
