// Package keys implements the public key cryptography used throughout
// vertex.
//
// Every node owns a secp256k1 keypair. The private key signs the messages
// the node emits; the hex-encoded public key doubles as the node's
// identifier on the network. We chose the secp256k1 curve because it is
// also used by Bitcoin and Ethereum, which means existing keys from those
// ecosystems can operate a vertex node.
package keys
