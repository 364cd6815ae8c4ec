/*
Package header defines the custom header carried by a remoting command and the
concrete headers the client sends.

A header encodes itself into a google.protobuf.Value. The value becomes the
extFields object of the command header on the wire. Every ext field is
rendered as a string value since brokers decode extFields as a string map.
*/
package header

import (
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// CommandCustomHeader is implemented by every header that can be attached to a
// remoting command.
//
// Encode populates root in place. root is expected to be empty or to already
// hold a struct; fields are merged into the existing struct.
type CommandCustomHeader interface {
	Encode(root *structpb.Value)
}

// FieldsOf encodes h into a fresh value and flattens the result to a string map.
func FieldsOf(h CommandCustomHeader) map[string]string {
	if h == nil {
		return nil
	}

	root := &structpb.Value{}
	h.Encode(root)

	return FieldsFromValue(root)
}

// FieldsFromValue flattens a struct value to Fields. Numbers and booleans are
// formatted, nested values are dropped.
func FieldsFromValue(root *structpb.Value) Fields {
	fields := root.GetStructValue().GetFields()
	out := make(Fields, len(fields))

	for key, value := range fields {
		if str, ok := stringOf(value); ok {
			out[key] = str
		}
	}

	return out
}

// StructFields turns root into a struct value, keeping existing fields, and
// returns the field map.
func StructFields(root *structpb.Value) map[string]*structpb.Value {
	st := root.GetStructValue()
	if st == nil {
		st = &structpb.Struct{}
		root.Kind = &structpb.Value_StructValue{StructValue: st}
	}

	if st.Fields == nil {
		st.Fields = make(map[string]*structpb.Value)
	}

	return st.Fields
}

// writer accumulates fields for one Encode call.
type writer map[string]*structpb.Value

func (w writer) str(key, value string) {
	w[key] = structpb.NewStringValue(value)
}

func (w writer) optStr(key, value string) {
	if value != "" {
		w.str(key, value)
	}
}

func (w writer) int32(key string, value int32) {
	w.str(key, strconv.FormatInt(int64(value), 10))
}

func (w writer) int64(key string, value int64) {
	w.str(key, strconv.FormatInt(value, 10))
}

func (w writer) optInt32(key string, value *int32) {
	if value != nil {
		w.int32(key, *value)
	}
}

func (w writer) bool(key string, value bool) {
	w.str(key, strconv.FormatBool(value))
}

func stringOf(value *structpb.Value) (string, bool) {
	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, true
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), true
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), true
	default:
		return "", false
	}
}
