package database

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
)

func Test_HasherPrefix(t *testing.T) {
	trans := []Tx{NewTx("Alice", "Bob", 100)}

	for _, nonce := range []uint64{0, 1, 10, 999, 1 << 40} {
		data, err := json.Marshal(hashInput{
			Index:         3,
			Timestamp:     1700000000,
			Trans:         trans,
			PrevBlockHash: ZeroHash,
			Nonce:         nonce,
		})
		if err != nil {
			t.Fatalf("\t✗\tShould be able to marshal: %v", err)
		}

		sum := sha256.Sum256(data)
		exp := hex.EncodeToString(sum[:])

		h := newHasher(3, 1700000000, trans, ZeroHash)
		if got := h.hash(nonce); got != exp {
			t.Fatalf("\t✗\tShould match the full encoding for nonce %d: got %s, exp %s", nonce, got, exp)
		}
		t.Logf("\t✓\tShould match the full encoding for nonce %d.", nonce)
	}
}

func Test_ValidateInvalidUTF8(t *testing.T) {

	// The hash encoding folds every invalid byte into the same replacement
	// character.
	a := CalculateHash(1, 1700000000, []Tx{NewTx("\xff", "Bob", 1)}, ZeroHash, 0)
	b := CalculateHash(1, 1700000000, []Tx{NewTx("\xfe", "Bob", 1)}, ZeroHash, 0)
	if a != b {
		t.Fatalf("\t✗\tShould encode invalid bytes the same way: %s, %s", a, b)
	}
	t.Logf("\t✓\tShould encode invalid bytes the same way.")

	genesis := Block{
		Index:         0,
		Timestamp:     1700000000,
		PrevBlockHash: ZeroHash,
		trans:         []Tx{},
	}
	genesis.Hash = genesis.CalculateHash()

	blk := Block{
		Index:         1,
		Timestamp:     1700000001,
		PrevBlockHash: genesis.Hash,
		trans:         []Tx{NewTx("\xfe", "Bob", 1)},
	}
	blk.Hash = blk.CalculateHash()

	if err := blk.ValidateBlock(genesis, 0, nil); !errors.Is(err, ErrInvalidLinkage) {
		t.Fatalf("\t✗\tShould reject a block holding invalid UTF-8: %v", err)
	}
	t.Logf("\t✓\tShould reject a block holding invalid UTF-8.")

	err := Chain{genesis, blk}.Validate(ValidateArgs{Difficulty: 0})

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Index != 1 || !errors.Is(err, ErrInvalidLinkage) {
		t.Fatalf("\t✗\tShould reject the chain at block 1: %v", err)
	}
	t.Logf("\t✓\tShould reject the chain at block 1.")
}
