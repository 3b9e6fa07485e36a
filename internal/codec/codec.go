// Package codec encodes the list-valued task columns and the widget payload.
//
// Every list is stored as a JSON array, so no value can collide with a
// separator. Decoding is lenient: a malformed blob yields an empty
// collection together with the error that caused the fallback.
package codec

import (
	"encoding/json"
	"strings"

	"zero/internal/task"
)

// Result is the outcome of a lenient decode. On failure Value is the empty
// collection.
type Result[T any] struct {
	Value T
	OK    bool
	Err   error
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v, OK: true}
}

func failed[T any](empty T, err error) Result[T] {
	return Result[T]{Value: empty, Err: err}
}

func EncodeStrings(v []string) (string, error) {
	return encode(v)
}

func DecodeStrings(blob string) Result[[]string] {
	return decode[string](blob)
}

func EncodeSubtasks(v []task.Subtask) (string, error) {
	return encode(v)
}

func DecodeSubtasks(blob string) Result[[]task.Subtask] {
	return decode[task.Subtask](blob)
}

func EncodeTasks(v []task.Task) (string, error) {
	if v == nil {
		v = []task.Task{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeTasks(blob string) Result[[]task.Task] {
	return decode[task.Task](blob)
}

// encode writes empty lists as the empty string.
func encode[T any](v []T) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode[T any](blob string) Result[[]T] {
	if strings.TrimSpace(blob) == "" {
		return ok[[]T](nil)
	}
	var v []T
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		return failed[[]T](nil, err)
	}
	if len(v) == 0 {
		v = nil
	}
	return ok(v)
}
