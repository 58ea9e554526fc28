package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dailyyoga/refreshkit/cache"
	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Decoder unmarshals a stored payload into v.
type Decoder func(data []byte, v any) error

// Payload decoders
var (
	JSON    Decoder = json.Unmarshal
	Msgpack Decoder = msgpack.Unmarshal
	CBOR    Decoder = cbor.Unmarshal
)

// Get returns a fetch that reads key and decodes it into a T.
// A missing key fails with ErrKeyNotFound, so a cache keeps serving its
// previous value when the key expires.
func Get[T any](r Redis, key string, decode Decoder) cache.FetchFunc[T] {
	if decode == nil {
		decode = JSON
	}
	return func(ctx context.Context) (T, error) {
		var zero T
		data, err := r.Get(ctx, key).Bytes()
		if errors.Is(err, Nil) {
			return zero, ErrMissingKey(key)
		}
		if err != nil {
			return zero, err
		}
		var v T
		if err := decode(data, &v); err != nil {
			return zero, ErrDecode(key, err)
		}
		return v, nil
	}
}

// HGetAll returns a fetch that reads every field of the hash at key.
// An empty or missing hash fails with ErrKeyNotFound.
func HGetAll(r Redis, key string) cache.FetchFunc[map[string]string] {
	return func(ctx context.Context) (map[string]string, error) {
		m, err := r.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if len(m) == 0 {
			return nil, ErrMissingKey(key)
		}
		return m, nil
	}
}
