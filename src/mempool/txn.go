package mempool

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ugorji/go/codec"
)

// Txn is the transaction wire format exchanged between modules and peers.
// It is encoded with msgpack.
type Txn struct {
	Sender    string
	Receiver  string
	Amount    uint64
	Nonce     uint64
	Timestamp int64
	Signature []byte
}

// Encode serializes the transaction with msgpack.
func (t *Txn) Encode() ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, new(codec.MsgpackHandle))
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeTxn deserializes a msgpack-encoded transaction.
func DecodeTxn(data []byte) (*Txn, error) {
	var t Txn
	dec := codec.NewDecoderBytes(data, new(codec.MsgpackHandle))
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Digest returns the hex-encoded sha256 digest identifying a serialized
// transaction.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
