package redis

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrPointerType    = errors.New("pointer type is not allowed")
	ErrProducerClosed = errors.New("producer is closed")
)

const messageField = "data"

// DefaultParseToMessage packs data as base64 msgpack under a single stream field.
func DefaultParseToMessage[T any](data T) (map[string]any, error) {
	if t := reflect.TypeOf(data); t != nil && t.Kind() == reflect.Ptr {
		return nil, ErrPointerType
	}

	bytes, err := msgpack.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}

	return map[string]any{
		messageField: base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// DefaultParseFromMessage reverses DefaultParseToMessage. An empty message yields the zero value.
func DefaultParseFromMessage[T any](message map[string]any) (T, error) {
	var result T

	if t := reflect.TypeOf(result); t != nil && t.Kind() == reflect.Ptr {
		return result, ErrPointerType
	}

	if len(message) == 0 {
		return result, nil
	}

	encoded, ok := message[messageField].(string)
	if !ok {
		return result, fmt.Errorf("%s field not found or invalid type", messageField)
	}

	bytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return result, fmt.Errorf("base64 decode error: %w", err)
	}

	if err := msgpack.Unmarshal(bytes, &result); err != nil {
		return result, fmt.Errorf("msgpack unmarshal error: %w", err)
	}

	return result, nil
}
