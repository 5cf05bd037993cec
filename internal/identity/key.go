package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// KeySize is the length of a security key in bytes.
const KeySize = 32

// ErrKeyFormat is returned when a presented key is not 64 hex characters.
var ErrKeyFormat = errors.New("security key must be 64 hex characters")

// SecurityKey is a 256-bit shared secret, hex encoded on the wire. The same
// type serves as the mobile-application authorization key and as the DHT
// shared key carried in the device configuration.
type SecurityKey [KeySize]byte

// NewKey returns a key filled from the system CSPRNG.
func NewKey() (SecurityKey, error) {
	var k SecurityKey
	if _, err := rand.Read(k[:]); err != nil {
		return SecurityKey{}, err
	}
	return k, nil
}

// ParseKey decodes a 64-character hex string. Upper case, lower case and
// mixed case are all accepted.
func ParseKey(s string) (SecurityKey, error) {
	if len(s) != KeySize*2 {
		return SecurityKey{}, ErrKeyFormat
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return SecurityKey{}, ErrKeyFormat
	}
	var k SecurityKey
	copy(k[:], raw)
	return k, nil
}

// Hex returns the lowercase hex form used in the JSON files.
func (k SecurityKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// Equal compares two keys in constant time. The authorization key is the
// only access control on the device, so the comparison must not leak the
// position of the first mismatched byte.
func (k SecurityKey) Equal(other SecurityKey) bool {
	return subtle.ConstantTimeCompare(k[:], other[:]) == 1
}

// IsNull reports whether the key is all zeros.
func (k SecurityKey) IsNull() bool {
	var zero SecurityKey
	return subtle.ConstantTimeCompare(k[:], zero[:]) == 1
}

func (k SecurityKey) String() string { return k.Hex() }

func (k SecurityKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Hex())
}

func (k *SecurityKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
