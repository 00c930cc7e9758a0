package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

/*
Vertex keys and signing are based on elliptic curve cryptography with the
secp256k1 curve, so keys are compatible with Bitcoin and Ethereum tooling.
*/

//Parameters of the secp256k1 curve, used to verify that a private key is
//valid.
var (
	secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
)

const (
	// number of bits in a big.Word
	wordBits = 32 << (uint64(^big.Word(0)) >> 63)
	// number of bytes in a big.Word
	wordBytes = wordBits / 8
)

//Curve returns the secp256k1 elliptic.Curve from btcsuite's implementation.
func Curve() elliptic.Curve {
	return btcec.S256()
}

// Keypair wraps the node's ECDSA private key and exposes the identity and
// signing operations the rest of the node needs.
type Keypair struct {
	Private *ecdsa.PrivateKey
}

// Generate creates a new random secp256k1 keypair.
func Generate() (*Keypair, error) {
	priv, err := ecdsa.GenerateKey(Curve(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{Private: priv}, nil
}

// FromPrivateKey wraps an existing private key.
func FromPrivateKey(priv *ecdsa.PrivateKey) *Keypair {
	return &Keypair{Private: priv}
}

// PublicKeyBytes returns the uncompressed public key encoding.
func (k *Keypair) PublicKeyBytes() []byte {
	return elliptic.Marshal(Curve(), k.Private.PublicKey.X, k.Private.PublicKey.Y)
}

// PublicKeyHex returns the 0x-prefixed hex encoding of the public key. It
// doubles as the node identifier.
func (k *Keypair) PublicKeyHex() string {
	return fmt.Sprintf("0x%X", k.PublicKeyBytes())
}

// Sign signs a hash and returns the r and s signature values.
func (k *Keypair) Sign(hash []byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(rand.Reader, k.Private, hash)
}

// Verify checks an r,s signature over hash against this keypair's public
// key.
func (k *Keypair) Verify(hash []byte, r, s *big.Int) bool {
	return ecdsa.Verify(&k.Private.PublicKey, hash, r, s)
}

//DumpPrivateKey exports a private key into a binary dump.
func DumpPrivateKey(priv *ecdsa.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return paddedBigBytes(priv.D, priv.Params().BitSize/8)
}

//ParsePrivateKey creates a private key with the given D value.
func ParsePrivateKey(d []byte) (*ecdsa.PrivateKey, error) {
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = Curve()

	if 8*len(d) != priv.Params().BitSize {
		return nil, fmt.Errorf("invalid length, need %d bits", priv.Params().BitSize)
	}

	priv.D = new(big.Int).SetBytes(d)

	// The priv.D must < N
	if priv.D.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("invalid private key, >=N")
	}

	// The priv.D must not be zero or negative.
	if priv.D.Sign() <= 0 {
		return nil, fmt.Errorf("invalid private key, zero or negative")
	}

	priv.PublicKey.X, priv.PublicKey.Y = priv.PublicKey.Curve.ScalarBaseMult(d)
	if priv.PublicKey.X == nil {
		return nil, errors.New("invalid private key")
	}

	return priv, nil
}

//PrivateKeyHex returns the hexadecimal representation of a raw private key
//as returned by DumpPrivateKey.
func PrivateKeyHex(key *ecdsa.PrivateKey) string {
	return hex.EncodeToString(DumpPrivateKey(key))
}

//paddedBigBytes encodes a big integer as a big-endian byte slice of at
//least n bytes.
func paddedBigBytes(bigint *big.Int, n int) []byte {
	if bigint.BitLen()/8 >= n {
		return bigint.Bytes()
	}
	ret := make([]byte, n)
	readBits(bigint, ret)
	return ret
}

//readBits encodes the absolute value of bigint as big-endian bytes. Callers
//must ensure that buf has enough space.
func readBits(bigint *big.Int, buf []byte) {
	i := len(buf)
	for _, d := range bigint.Bits() {
		for j := 0; j < wordBytes && i > 0; j++ {
			i--
			buf[i] = byte(d)
			d >>= 8
		}
	}
}
