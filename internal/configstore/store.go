// Package configstore owns the mutable device configuration file. The
// file's presence on disk is itself a control signal: the boot sequence
// treats an existing config.json as "provisioned" and the absence of one as
// "unprovisioned". Writes therefore have to be atomic and crash safe.
package configstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sifis-home/wp6-mobile-application-api/internal/fsatomic"
	"github.com/sifis-home/wp6-mobile-application-api/internal/identity"
)

// ConfigFileName is the configuration file name under the base directory.
const ConfigFileName = "config.json"

// ErrNotProvisioned is returned by Read when no configuration file exists.
// This is an expected steady state, not a failure.
var ErrNotProvisioned = errors.New("device is not provisioned")

// DeviceConfig is the user-chosen configuration written by the mobile
// application. Writes are full replacements; there is no partial patch.
type DeviceConfig struct {
	Name         string               `json:"name"`
	DHTSharedKey identity.SecurityKey `json:"dht-shared-key"`
}

// Validate checks the parts of a configuration the store refuses to persist.
func (c *DeviceConfig) Validate() error {
	if c.Name == "" {
		return errors.New("device name must not be empty")
	}
	if c.DHTSharedKey.IsNull() {
		return errors.New("dht shared key must not be null")
	}
	return nil
}

// Store reads and writes config.json with atomic replace semantics.
//
// Writers are linearized two ways: a process-wide mutex serializes handlers
// in this service, and an advisory flock around the write-and-rename covers
// any other process touching the same directory. Readers take neither lock;
// the rename guarantees they always see a complete file.
type Store struct {
	path string

	mu sync.Mutex // serializes Write and Delete
}

// New returns a store for config.json under baseDir. A temp file left over
// from a crashed write is cleaned up here, under the lock, so the read path
// never has to touch it.
func New(baseDir string) *Store {
	s := &Store{path: filepath.Join(baseDir, ConfigFileName)}
	_ = fsatomic.WithLock(s.path, func() error {
		return fsatomic.RemoveStale(s.path)
	})
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Read returns the current configuration, or ErrNotProvisioned when the
// file does not exist.
func (s *Store) Read() (*DeviceConfig, error) {
	var cfg DeviceConfig
	exists, err := fsatomic.LoadJSON(s.path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("read device config: %w", err)
	}
	if !exists {
		return nil, ErrNotProvisioned
	}
	return &cfg, nil
}

// Write validates cfg and replaces the configuration file. On failure the
// previous file, if any, remains intact and observable.
func (s *Store) Write(cfg *DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsatomic.WithLock(s.path, func() error {
		if err := fsatomic.SaveJSON(s.path, cfg, 0o600); err != nil {
			return fmt.Errorf("persist device config: %w", err)
		}
		return nil
	})
}

// Delete removes the configuration file, returning the device to the
// unprovisioned state. Deleting an absent file succeeds.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsatomic.WithLock(s.path, func() error {
		if err := fsatomic.Remove(s.path); err != nil {
			return fmt.Errorf("remove device config: %w", err)
		}
		return nil
	})
}
