package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflux/eventstore/pkg/config"
	"github.com/arcflux/eventstore/pkg/domain"
)

func envFrom(values map[string]string) config.Getenv {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := config.Load("ledger", envFrom(nil))
	require.NoError(t, err)
	assert.Empty(t, cfg.CipherTopic)
	assert.False(t, cfg.SnapshottingEnabled)
	assert.False(t, cfg.CreateTable)
}

func TestLoad_PrefixedOverrideTakesPrecedence(t *testing.T) {
	cfg, err := config.Load("ledger", envFrom(map[string]string{
		"CIPHER_TOPIC":        "bare",
		"LEDGER_CIPHER_TOPIC": "prefixed",
		"LEDGER_CIPHER_KEY":   "k",
	}))
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.CipherTopic)
}

func TestLoad_FallsBackToBareKeyWithoutPrefix(t *testing.T) {
	cfg, err := config.Load("ledger", envFrom(map[string]string{
		"CIPHER_TOPIC": "bare",
		"CIPHER_KEY":   "k",
	}))
	require.NoError(t, err)
	assert.Equal(t, "bare", cfg.CipherTopic)
}

func TestLoad_CipherTopicWithoutKeyIsAnEnvironmentError(t *testing.T) {
	_, err := config.Load("ledger", envFrom(map[string]string{
		"CIPHER_TOPIC": "chacha20poly1305",
	}))
	assert.ErrorIs(t, err, domain.ErrEnvironment)
}

func TestLoad_InvalidBooleanIsAnEnvironmentError(t *testing.T) {
	_, err := config.Load("ledger", envFrom(map[string]string{
		"IS_SNAPSHOTTING_ENABLED": "not-a-bool",
	}))
	assert.ErrorIs(t, err, domain.ErrEnvironment)
}

func TestLoad_BooleansParse(t *testing.T) {
	cfg, err := config.Load("ledger", envFrom(map[string]string{
		"IS_SNAPSHOTTING_ENABLED": "true",
		"CREATE_TABLE":            "1",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.SnapshottingEnabled)
	assert.True(t, cfg.CreateTable)
}

func TestLoad_NoAppPrefixUsesBareKeysOnly(t *testing.T) {
	cfg, err := config.Load("", envFrom(map[string]string{
		"COMPRESSOR_TOPIC": "zstd",
	}))
	require.NoError(t, err)
	assert.Equal(t, "zstd", cfg.CompressorTopic)
}
