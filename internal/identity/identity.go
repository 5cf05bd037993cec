// Package identity loads the immutable, factory-written device record.
// The record is the root of trust: without it the service refuses to start,
// and nothing in this service ever mutates it.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sifis-home/wp6-mobile-application-api/internal/fsatomic"
)

// InfoFileName is the identity file name under the base directory.
const InfoFileName = "device.json"

// DeviceIdentity is the factory-written device record stored in device.json.
type DeviceIdentity struct {
	ProductName      string      `json:"product-name"`
	AuthorizationKey SecurityKey `json:"authorization-key"`
	PrivateKeyFile   string      `json:"private-key-file"`
	UUID             uuid.UUID   `json:"uuid"`
}

const identitySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["product-name", "authorization-key", "private-key-file", "uuid"],
  "properties": {
    "product-name": {"type": "string", "minLength": 1},
    "authorization-key": {"type": "string", "pattern": "^[0-9a-fA-F]{64}$"},
    "private-key-file": {"type": "string", "minLength": 1},
    "uuid": {"type": "string", "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(identitySchema)

// Load reads and validates the identity file at path. A missing file is
// reported with an error wrapping os.ErrNotExist so the caller can point the
// operator at the create-device-info tool.
func Load(path string) (*DeviceIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device identity: %w", err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate device identity: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid device identity %s: %s", path, strings.Join(msgs, "; "))
	}
	var id DeviceIdentity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("parse device identity: %w", err)
	}
	if id.AuthorizationKey.IsNull() {
		return nil, fmt.Errorf("invalid device identity %s: authorization key is null", path)
	}
	return &id, nil
}

// New generates a fresh identity for the factory provisioning tool: a random
// authorization key and a UUIDv7, with the private key expected next to the
// other files under baseDir.
func New(productName, baseDir string) (*DeviceIdentity, error) {
	key, err := NewKey()
	if err != nil {
		return nil, fmt.Errorf("generate authorization key: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate uuid: %w", err)
	}
	return &DeviceIdentity{
		ProductName:      productName,
		AuthorizationKey: key,
		PrivateKeyFile:   filepath.Join(baseDir, "private.pem"),
		UUID:             id,
	}, nil
}

// Save writes the identity file with owner-only permissions. Used by the
// factory tool only; the service never writes device.json.
func (d *DeviceIdentity) Save(path string) error {
	return fsatomic.SaveJSON(path, d, 0o600)
}
