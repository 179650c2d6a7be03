package mapper_test

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/mapper"
	"github.com/arcflux/eventstore/pkg/mapper/cipher"
	"github.com/arcflux/eventstore/pkg/mapper/compressor"
	"github.com/arcflux/eventstore/pkg/topic"
	"github.com/arcflux/eventstore/pkg/transcoding"
)

const testTopic = "test.widget.v1"

type widget struct {
	Name  string
	Price decimal.Decimal
}

func (w *widget) Topic() string { return testTopic }

func newRegistry() *topic.Registry {
	reg := topic.NewRegistry()
	reg.RegisterPayload(testTopic, func() domain.EventPayload { return &widget{} })
	return reg
}

func TestMapper_EncodeDecodeRoundTrip(t *testing.T) {
	m := mapper.New(transcoding.NewRegistry(), newRegistry())

	original := &widget{Name: "bolt", Price: decimal.RequireFromString("3.50")}
	data, err := m.Encode(original)
	require.NoError(t, err)

	decoded, err := m.Decode(testTopic, data)
	require.NoError(t, err)

	got := decoded.(*widget)
	assert.Equal(t, original.Name, got.Name)
	assert.True(t, original.Price.Equal(got.Price))
}

func TestMapper_DecodeUnknownTopic(t *testing.T) {
	m := mapper.New(transcoding.NewRegistry(), newRegistry())
	_, err := m.Decode("nonexistent.topic", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrCodec)
}

func TestMapper_DecodeTopicMismatch(t *testing.T) {
	reg := topic.NewRegistry()
	reg.RegisterPayload(testTopic, func() domain.EventPayload { return &widget{} })
	reg.RegisterPayload("other.topic", func() domain.EventPayload { return &widget{} })
	m := mapper.New(transcoding.NewRegistry(), reg)

	data, err := m.Encode(&widget{Name: "bolt", Price: decimal.Zero})
	require.NoError(t, err)

	_, err = m.Decode("other.topic", data)
	assert.ErrorIs(t, err, domain.ErrCodec)
}

func TestMapper_WithCompressor(t *testing.T) {
	z, err := compressor.NewZSTD(zstd.SpeedDefault)
	require.NoError(t, err)
	defer z.Close()

	m := mapper.New(transcoding.NewRegistry(), newRegistry(), mapper.WithCompressor(z))

	original := &widget{Name: "bolt", Price: decimal.RequireFromString("3.50")}
	data, err := m.Encode(original)
	require.NoError(t, err)

	decoded, err := m.Decode(testTopic, data)
	require.NoError(t, err)
	assert.Equal(t, original.Name, decoded.(*widget).Name)
}

func TestMapper_WithCipher(t *testing.T) {
	aead, err := cipher.NewChaCha20Poly1305(make([]byte, 32))
	require.NoError(t, err)

	m := mapper.New(transcoding.NewRegistry(), newRegistry(), mapper.WithCipher(aead))

	original := &widget{Name: "bolt", Price: decimal.RequireFromString("3.50")}
	data, err := m.Encode(original)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "bolt")

	decoded, err := m.Decode(testTopic, data)
	require.NoError(t, err)
	assert.Equal(t, original.Name, decoded.(*widget).Name)
}

func TestMapper_CipherRejectsTamperedCiphertext(t *testing.T) {
	aead, err := cipher.NewChaCha20Poly1305(make([]byte, 32))
	require.NoError(t, err)
	m := mapper.New(transcoding.NewRegistry(), newRegistry(), mapper.WithCipher(aead))

	data, err := m.Encode(&widget{Name: "bolt", Price: decimal.Zero})
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = m.Decode(testTopic, tampered)
	assert.ErrorIs(t, err, domain.ErrCodec)
}
