package satchel

import (
	"context"
	"fmt"

	"github.com/aretw0/satchel/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// GetAs reads key and decodes it into T. Values that went through JSON come back
// as map[string]any and float64; GetAs converts them the way config decoding does.
// A missing key yields def.
func GetAs[T any](ctx context.Context, store ports.Store, key string, def T) (T, error) {
	v, err := store.Get(ctx, key, nil)
	if err != nil || v == nil {
		return def, err
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return def, err
	}
	if err := dec.Decode(v); err != nil {
		return def, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}
