package identity

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKeyHex = "f0e1d2c3b4a5968778695a4b3c2d1e0f0f1e2d3c4b5a69788796a5b4c3d2e1f0"

func TestParseKeyRoundTrip(t *testing.T) {
	key, err := ParseKey(testKeyHex)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if key.Hex() != testKeyHex {
		t.Fatalf("round trip mismatch: %s", key.Hex())
	}
	// Upper case is accepted, canonical form is lower case.
	upper, err := ParseKey(strings.ToUpper(testKeyHex))
	if err != nil {
		t.Fatalf("parse upper: %v", err)
	}
	if !key.Equal(upper) {
		t.Fatal("case should not change the key value")
	}
}

func TestParseKeyRejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		testKeyHex + "00",
		strings.Repeat("zz", 32),
	} {
		if _, err := ParseKey(in); !errors.Is(err, ErrKeyFormat) {
			t.Fatalf("ParseKey(%q): expected ErrKeyFormat, got %v", in, err)
		}
	}
}

func TestKeyEqualAndNull(t *testing.T) {
	a, _ := ParseKey(testKeyHex)
	var zero SecurityKey
	if a.Equal(zero) {
		t.Fatal("different keys reported equal")
	}
	if !zero.IsNull() {
		t.Fatal("zero key should be null")
	}
	if a.IsNull() {
		t.Fatal("non-zero key reported null")
	}
}

func TestNewGeneratesUsableIdentity(t *testing.T) {
	id, err := New("Test Device", "/opt/sifis-home")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if id.ProductName != "Test Device" {
		t.Fatalf("product name: %q", id.ProductName)
	}
	if id.AuthorizationKey.IsNull() {
		t.Fatal("authorization key should not be null")
	}
	if id.UUID.Version() != 7 {
		t.Fatalf("expected UUIDv7, got v%d", id.UUID.Version())
	}
	if id.PrivateKeyFile != filepath.Join("/opt/sifis-home", "private.pem") {
		t.Fatalf("private key path: %q", id.PrivateKeyFile)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, InfoFileName)
	id, err := New("Test Device", dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := id.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *id {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, id)
	}
}

func TestLoadMissingWrapsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), InfoFileName))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing key":     `{"product-name":"X","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"short key":       `{"product-name":"X","authorization-key":"abcd","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"non-hex key":     `{"product-name":"X","authorization-key":"` + strings.Repeat("zz", 32) + `","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"bad uuid":        `{"product-name":"X","authorization-key":"` + testKeyHex + `","private-key-file":"/k","uuid":"not-a-uuid"}`,
		"empty product":   `{"product-name":"","authorization-key":"` + testKeyHex + `","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"null key":        `{"product-name":"X","authorization-key":"` + strings.Repeat("00", 32) + `","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"number product":  `{"product-name":7,"authorization-key":"` + testKeyHex + `","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
		"missing product": `{"authorization-key":"` + testKeyHex + `","private-key-file":"/k","uuid":"5f8b3c30-ec2f-4228-af3b-dde564985e60"}`,
	}
	dir := t.TempDir()
	for name, doc := range cases {
		path := filepath.Join(dir, "device.json")
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected load to fail", name)
		}
	}
}
