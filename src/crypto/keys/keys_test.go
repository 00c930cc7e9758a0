package keys

import (
	"crypto/sha256"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSignVerify(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	hash := sha256.Sum256([]byte("vertex"))

	r, s, err := kp.Sign(hash[:])
	if err != nil {
		t.Fatal(err)
	}

	if !kp.Verify(hash[:], r, s) {
		t.Fatal("signature did not verify")
	}

	other := sha256.Sum256([]byte("tampered"))
	if kp.Verify(other[:], r, s) {
		t.Fatal("signature verified against the wrong hash")
	}
}

func TestDumpParseRoundtrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParsePrivateKey(DumpPrivateKey(kp.Private))
	if err != nil {
		t.Fatal(err)
	}

	if parsed.D.Cmp(kp.Private.D) != 0 {
		t.Fatal("parsed key does not match original")
	}

	if FromPrivateKey(parsed).PublicKeyHex() != kp.PublicKeyHex() {
		t.Fatal("public keys do not match")
	}
}

func TestKeyfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "vertex-keys")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	kf := NewKeyfile(filepath.Join(dir, "priv_key"))

	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	if err := kf.WriteKeypair(kp); err != nil {
		t.Fatal(err)
	}

	read, err := kf.ReadKeypair()
	if err != nil {
		t.Fatal(err)
	}

	if read.PublicKeyHex() != kp.PublicKeyHex() {
		t.Fatal("keyfile roundtrip altered the key")
	}
}

func TestKeyfilePermissions(t *testing.T) {
	dir, err := ioutil.TempDir("", "vertex-keys")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	keyPath := filepath.Join(dir, "priv_key")

	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	kf := NewKeyfile(keyPath)
	if err := kf.WriteKeypair(kp); err != nil {
		t.Fatal(err)
	}

	if err := os.Chmod(keyPath, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := kf.ReadKeypair(); err == nil {
		t.Fatal("expected permission error on group-readable keyfile")
	}
}
