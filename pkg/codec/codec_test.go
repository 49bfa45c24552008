package codec_test

import (
	"testing"

	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_Unmarshal_Empty(t *testing.T) {
	for _, blob := range [][]byte{nil, []byte(""), []byte("  "), []byte("null")} {
		r, err := codec.JSON{}.Unmarshal(blob)
		require.NoError(t, err)
		assert.NotNil(t, r)
		assert.Empty(t, r)
	}
}

func TestJSON_Unmarshal_Corrupt(t *testing.T) {
	_, err := codec.JSON{}.Unmarshal([]byte("{not json"))
	assert.Error(t, err)
}

func TestJSON_PreservesKeys(t *testing.T) {
	blob, err := codec.JSON{}.Marshal(domain.Record{"name": "Ethan", "flash:msg": "hi"})
	require.NoError(t, err)

	r, err := codec.JSON{}.Unmarshal(blob)
	require.NoError(t, err)
	assert.Equal(t, "Ethan", r["name"])
	assert.Equal(t, "hi", r["flash:msg"])
}

func TestDecodeValue_Number(t *testing.T) {
	data, err := codec.EncodeValue(42)
	require.NoError(t, err)

	v, err := codec.DecodeValue(data)
	require.NoError(t, err)
	assert.Equal(t, float64(42), v)
}
