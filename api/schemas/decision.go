package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// -- Arguments --

// Arg is one keyword argument of an operation.
type Arg struct {
	Key   string
	Value any
}

// Args is an ordered list of keyword arguments. Its JSON form is an object
// whose keys keep the order they were decoded or appended in.
type Args []Arg

// Get returns the value for key.
func (a Args) Get(key string) (any, bool) {
	for _, arg := range a {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return nil, false
}

// With returns a copy of the list with key set, replacing an existing entry in
// place or appending a new one.
func (a Args) With(key string, value any) Args {
	out := make(Args, len(a), len(a)+1)
	copy(out, a)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Arg{Key: key, Value: value})
}

// Keys lists the argument names in order.
func (a Args) Keys() []string {
	keys := make([]string, len(a))
	for i, arg := range a {
		keys[i] = arg.Key
	}
	return keys
}

// MarshalJSON writes the arguments as an object in list order.
func (a Args) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, arg := range a {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(arg.Key)
		stream.WriteVal(arg.Value)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

// UnmarshalJSON reads an object, keeping key order. null decodes to an empty list.
func (a *Args) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		*a = Args{}
		return nil
	case jsoniter.ObjectValue:
	default:
		return fmt.Errorf("args must be a JSON object")
	}

	out := Args{}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		out = append(out, Arg{Key: field, Value: it.Read()})
		return it.Error == nil
	})
	if iter.Error != nil {
		return fmt.Errorf("failed to decode args: %w", iter.Error)
	}
	*a = out
	return nil
}

// -- Decision --

// Decision is the structured answer of an agent for one step. Fields without
// omitempty are required in the oracle's JSON.
type Decision struct {
	Observation  string `json:"Observation,omitempty"`
	Thought      string `json:"Thought,omitempty"`
	ControlLabel string `json:"ControlLabel"`
	ControlText  string `json:"ControlText"`
	Function     string `json:"Function"`
	Args         Args   `json:"Args"`
	Status       Status `json:"Status"`
	Plan         string `json:"Plan"`
	Comment      string `json:"Comment,omitempty"`
}

// RequiredDecisionFields are the keys a decision must carry.
var RequiredDecisionFields = []string{"ControlLabel", "ControlText", "Function", "Args", "Plan", "Status"}
