// Package codec serializes session records and values.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/satchel/pkg/domain"
)

// Codec turns a whole session record into an opaque blob and back.
type Codec interface {
	Marshal(r domain.Record) ([]byte, error)
	Unmarshal(data []byte) (domain.Record, error)
}

// JSON is the default record codec.
type JSON struct{}

// Marshal implements Codec.
func (JSON) Marshal(r domain.Record) ([]byte, error) {
	if r == nil {
		r = domain.Record{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// Unmarshal implements Codec. An empty blob decodes to an empty record.
func (JSON) Unmarshal(data []byte) (domain.Record, error) {
	r := domain.Record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	if r == nil {
		// "null" decodes to a nil map.
		r = domain.Record{}
	}
	return r, nil
}

// EncodeValue serializes a single value for per-key backends.
func EncodeValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return data, nil
}

// DecodeValue is the inverse of EncodeValue. Numbers come back as float64 and
// objects as map[string]any.
func DecodeValue(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return v, nil
}
