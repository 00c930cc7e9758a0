package keys

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
)

// Keyfile reads and writes a keypair from/to an unencrypted file containing
// a raw hex dump of the private key's D value.
type Keyfile struct {
	l    sync.Mutex
	path string
}

// NewKeyfile instantiates a Keyfile at the given path.
func NewKeyfile(path string) *Keyfile {
	return &Keyfile{path: path}
}

// Path returns the underlying file path.
func (k *Keyfile) Path() string {
	return k.path
}

// checkFileInfo verifies that the file exists and has user permissions
// only.
func (k *Keyfile) checkFileInfo() error {
	info, err := os.Stat(k.path)
	if err != nil {
		return err
	}

	perm := info.Mode().Perm()

	// permissions for 'groups' and 'others'
	var nonUserMask os.FileMode = (1 << 6) - 1

	if nonUserPerm := perm & nonUserMask; nonUserPerm != 0 {
		return fmt.Errorf("keyfile permissions should exclude 'groups' and 'others', got %o", perm)
	}

	return nil
}

// ReadKeypair reads and parses the keypair from the underlying file.
func (k *Keyfile) ReadKeypair() (*Keypair, error) {
	k.l.Lock()
	defer k.l.Unlock()

	if err := k.checkFileInfo(); err != nil {
		return nil, err
	}

	buf, err := ioutil.ReadFile(k.path)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(buf)))
	if err != nil {
		return nil, err
	}

	priv, err := ParsePrivateKey(raw)
	if err != nil {
		return nil, err
	}

	return FromPrivateKey(priv), nil
}

// WriteKeypair writes a raw hex dump of the keypair's private key to the
// underlying file, creating parent directories as needed.
func (k *Keyfile) WriteKeypair(kp *Keypair) error {
	k.l.Lock()
	defer k.l.Unlock()

	rawKey := PrivateKeyHex(kp.Private)

	if err := os.MkdirAll(path.Dir(k.path), 0700); err != nil {
		return err
	}

	return ioutil.WriteFile(k.path, []byte(rawKey), 0600)
}
