package header

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Fields is a header made of raw string pairs. Decoded commands carry their
// ext fields as Fields.
type Fields map[string]string

func (f Fields) Encode(root *structpb.Value) {
	w := writer(StructFields(root))

	for key, value := range f {
		w.str(key, value)
	}
}

// Get returns the value of key and whether it is present.
func (f Fields) Get(key string) (string, bool) {
	value, ok := f[key]

	return value, ok
}
