package peer

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/blockchain/signature"
)

// Envelope represents a message gossiped between nodes. The payload is signed
// by the node that created the envelope.
type Envelope struct {
	NodeID    string          `json:"node_id" validate:"required"`
	Host      string          `json:"host" validate:"required"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
	Signature string          `json:"signature" validate:"required"`
}

// signedContent is the part of the envelope the signature covers.
type signedContent struct {
	NodeID  string          `json:"node_id"`
	Host    string          `json:"host"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope encodes the payload and signs it with the node key.
func NewEnvelope(host string, payload any, privateKey *ecdsa.PrivateKey) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding payload: %w", err)
	}

	content := signedContent{
		NodeID:  signature.PublicKeyToNodeID(privateKey.PublicKey),
		Host:    host,
		Payload: data,
	}

	sig, err := signature.Sign(content, privateKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("signing envelope: %w", err)
	}

	env := Envelope{
		NodeID:    content.NodeID,
		Host:      host,
		Payload:   data,
		Signature: sig,
	}

	return env, nil
}

// Open checks the envelope was signed by the node it names and decodes the
// payload into the specified value.
func (env Envelope) Open(payload any) error {
	content := signedContent{
		NodeID:  env.NodeID,
		Host:    env.Host,
		Payload: env.Payload,
	}

	nodeID, err := signature.FromAddress(content, env.Signature)
	if err != nil {
		return fmt.Errorf("%w: envelope from %s: %s", database.ErrMalformedCandidate, env.Host, err)
	}

	if nodeID != env.NodeID {
		return fmt.Errorf("%w: envelope from %s: signed by %s, claims %s", database.ErrMalformedCandidate, env.Host, nodeID, env.NodeID)
	}

	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("%w: envelope from %s: %s", database.ErrMalformedCandidate, env.Host, err)
	}

	return nil
}
