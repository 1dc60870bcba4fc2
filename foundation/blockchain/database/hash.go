package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// ZeroHash represents the previous hash of the genesis block.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// hashInput is the canonical form of a block that is hashed. The field order
// of this struct is the field order of the encoded bytes.
type hashInput struct {
	Index         uint32 `json:"index"`
	Timestamp     int64  `json:"timestamp"`
	Trans         []Tx   `json:"transactions"`
	PrevBlockHash string `json:"previous_hash"`
	Nonce         uint64 `json:"nonce"`
}

// CalculateHash returns the SHA-256 content hash, as lowercase hex, of the
// specified block fields.
func CalculateHash(index uint32, timestamp int64, trans []Tx, prevBlockHash string, nonce uint64) string {
	h := newHasher(index, timestamp, trans, prevBlockHash)
	return h.hash(nonce)
}

// =============================================================================

// hasher holds the encoded block fields that precede the nonce so a nonce
// search only has to encode the nonce on every attempt.
type hasher struct {
	prefix []byte
	buf    []byte
}

// newHasher encodes everything but the nonce.
func newHasher(index uint32, timestamp int64, trans []Tx, prevBlockHash string) *hasher {
	if trans == nil {
		trans = []Tx{}
	}

	in := hashInput{
		Index:         index,
		Timestamp:     timestamp,
		Trans:         trans,
		PrevBlockHash: prevBlockHash,
	}

	// A struct of strings and integers always marshals.
	data, _ := json.Marshal(in)

	// The encoding ends with `"nonce":0}`. Dropping the `0}` leaves the
	// prefix every nonce is appended to.
	prefix := bytes.TrimSuffix(data, []byte("0}"))

	return &hasher{
		prefix: prefix,
		buf:    make([]byte, 0, len(prefix)+24),
	}
}

// hash returns the hash for the block using the specified nonce.
func (h *hasher) hash(nonce uint64) string {
	h.buf = append(h.buf[:0], h.prefix...)
	h.buf = strconv.AppendUint(h.buf, nonce, 10)
	h.buf = append(h.buf, '}')

	sum := sha256.Sum256(h.buf)
	return hex.EncodeToString(sum[:])
}
