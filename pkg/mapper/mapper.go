// Package mapper implements the codec pipeline (component B): the
// symmetric, reversible transformation between in-memory event objects and
// the opaque byte payload a recorder stores. Encoding is serialize, then
// optionally compress, then optionally encrypt; decoding runs the inverse
// in reverse order. Any step may fail with a codec error; the pipeline
// never swallows it.
package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/mapper/cipher"
	"github.com/arcflux/eventstore/pkg/mapper/compressor"
	"github.com/arcflux/eventstore/pkg/topic"
	"github.com/arcflux/eventstore/pkg/transcoding"
)

// Mapper encodes EventPayload values to opaque bytes and back. The header
// fields (aggregate id, version, timestamp) never pass through the
// pipeline: they are structurally excluded from EventPayload and live in
// the recorder's dedicated columns, so there is nothing to strip on write
// or re-inject on read beyond attaching them to the reconstructed Event.
type Mapper struct {
	transcoder *transcoding.Registry
	topics     *topic.Registry
	compressor compressor.Compressor // optional
	cipher     cipher.Cipher         // optional
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithCompressor enables the compression step.
func WithCompressor(c compressor.Compressor) Option {
	return func(m *Mapper) { m.compressor = c }
}

// WithCipher enables the encryption step.
func WithCipher(c cipher.Cipher) Option {
	return func(m *Mapper) { m.cipher = c }
}

// New builds a Mapper. transcoder and topics are required; compressor and
// cipher are optional and supplied via options.
func New(transcoder *transcoding.Registry, topics *topic.Registry, opts ...Option) *Mapper {
	m := &Mapper{transcoder: transcoder, topics: topics}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Encode runs payload through serialize -> compress -> encrypt, returning
// the opaque bytes a recorder persists alongside payload.Topic().
func (m *Mapper) Encode(payload domain.EventPayload) ([]byte, error) {
	tree, err := encodeStruct(m.transcoder, payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, domain.NewCodecError("serialize", err)
	}

	if m.compressor != nil {
		data, err = m.compressor.Compress(data)
		if err != nil {
			return nil, domain.NewCodecError("compress", err)
		}
	}

	if m.cipher != nil {
		data, err = m.cipher.Encrypt(data)
		if err != nil {
			return nil, domain.NewCodecError("encrypt", err)
		}
	}

	return data, nil
}

// Decode runs the stored bytes through decrypt -> decompress ->
// deserialize, resolving the concrete payload type from topicName via the
// topic registry.
func (m *Mapper) Decode(topicName string, data []byte) (domain.EventPayload, error) {
	ctor, err := m.topics.ResolvePayload(topicName)
	if err != nil {
		return nil, domain.NewCodecError("topic", err)
	}

	var err2 error
	if m.cipher != nil {
		data, err2 = m.cipher.Decrypt(data)
		if err2 != nil {
			return nil, domain.NewCodecError("decrypt", err2)
		}
	}

	if m.compressor != nil {
		data, err2 = m.compressor.Decompress(data)
		if err2 != nil {
			return nil, domain.NewCodecError("decompress", err2)
		}
	}

	var tree map[string]any
	if err2 = json.Unmarshal(data, &tree); err2 != nil {
		return nil, domain.NewCodecError("deserialize", err2)
	}

	payload := ctor()
	if err2 = decodeStruct(m.transcoder, tree, payload); err2 != nil {
		return nil, err2
	}

	if payload.Topic() != topicName {
		return nil, domain.NewCodecError("topic", fmt.Errorf("decoded payload topic %q does not match stored topic %q", payload.Topic(), topicName))
	}

	return payload, nil
}
