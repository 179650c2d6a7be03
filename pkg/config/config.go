// Package config builds process configuration from an environment
// lookup function, pinning the core's inputs without scattering
// os.Getenv calls through it. The factory that turns a Config into live
// recorders, ciphers, and compressors is out of scope here; this
// package only parses and validates the environment surface.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arcflux/eventstore/pkg/domain"
)

// Config is the environment-derived configuration for one application.
// Zero value is the "nothing configured" state: no cipher, no
// compressor, snapshotting disabled.
type Config struct {
	// CipherTopic and CipherKey together enable encryption. Supplying
	// CipherTopic without CipherKey is an environment error.
	CipherTopic string
	CipherKey   string

	// CompressorTopic enables compression when non-empty.
	CompressorTopic string

	// SnapshottingEnabled enables the snapshot store.
	SnapshottingEnabled bool

	// CreateTable, when true, instructs a SQL-backed recorder to create
	// its schema on open rather than assuming it already exists.
	CreateTable bool
}

// Getenv looks a key up, returning ("", false) when unset. Satisfied by
// a closure over os.Getenv, a map, or any other environment source.
type Getenv func(key string) (string, bool)

// Load builds a Config for the given application name. Environment keys
// are application-prefixed with the upper-cased app name:
// "<APP>_CIPHER_TOPIC" falls back to the unprefixed "CIPHER_TOPIC" when
// app is empty or the prefixed key is unset.
func Load(app string, getenv Getenv) (*Config, error) {
	prefix := strings.ToUpper(app)
	lookup := func(key string) (string, bool) {
		if prefix != "" {
			if v, ok := getenv(prefix + "_" + key); ok {
				return v, true
			}
		}
		return getenv(key)
	}

	cfg := &Config{}

	cfg.CipherTopic, _ = lookup("CIPHER_TOPIC")
	cfg.CipherKey, _ = lookup("CIPHER_KEY")
	if cfg.CipherTopic != "" && cfg.CipherKey == "" {
		return nil, fmt.Errorf("%w: CIPHER_TOPIC set without CIPHER_KEY", domain.ErrEnvironment)
	}

	cfg.CompressorTopic, _ = lookup("COMPRESSOR_TOPIC")

	if raw, ok := lookup("IS_SNAPSHOTTING_ENABLED"); ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: IS_SNAPSHOTTING_ENABLED: %v", domain.ErrEnvironment, err)
		}
		cfg.SnapshottingEnabled = enabled
	}

	if raw, ok := lookup("CREATE_TABLE"); ok {
		create, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: CREATE_TABLE: %v", domain.ErrEnvironment, err)
		}
		cfg.CreateTable = create
	}

	return cfg, nil
}
