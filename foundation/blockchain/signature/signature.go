// Package signature provides helper functions for handling the node identity
// and the signatures carried on gossip messages.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature can't be decoded or
// doesn't recover a public key.
var ErrInvalidSignature = errors.New("invalid signature")

// stampPrefix is mixed into every signed hash so a signature produced by a
// node can't be replayed as a signature for something else.
const stampPrefix = "\x19Ledger Signed Message:\n32"

// =============================================================================

// Hash returns the SHA-256 of the JSON encoding of the value as hex with
// the 0x prefix.
func Hash(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:]), nil
}

// Sign uses the specified private key to sign the value. The signature is
// returned as hex in the [R|S|V] format.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", ErrInvalidSignature
	}

	return hexutil.Encode(sig), nil
}

// FromAddress extracts the node id of the key that signed the value.
func FromAddress(value any, sigStr string) (string, error) {

	// NOTE: If the same exact value for the given signature is not provided
	// we will get the wrong node id. The public key is being extracted from
	// the data and signature.

	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return PublicKeyToNodeID(*publicKey), nil
}

// PublicKeyToNodeID returns the node id for the public key.
func PublicKeyToNodeID(publicKey ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(publicKey).String()
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the value with the
// ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	valueHash := sha256.Sum256(v)

	h := sha256.New()
	h.Write([]byte(stampPrefix))
	h.Write(valueHash[:])

	return h.Sum(nil), nil
}
