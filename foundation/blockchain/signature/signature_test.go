package signature_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/basicnode/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	nodeID   = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	if id := signature.PublicKeyToNodeID(pk.PublicKey); id != nodeID {
		t.Logf("got: %s", id)
		t.Logf("exp: %s", nodeID)
		t.Fatalf("Should get back the right node id.")
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Fatalf("Should get back a 65 byte hex signature: %s", sig)
	}

	id, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("Should be able to recover the node id: %s", err)
	}

	if id != nodeID {
		t.Logf("got: %s", id)
		t.Logf("exp: %s", nodeID)
		t.Fatalf("Should get back the right node id.")
	}

	value.Name = "Jill"

	id, err = signature.FromAddress(value, sig)
	if err == nil && id == nodeID {
		t.Fatalf("Should not recover the node id for different data.")
	}
}

func Test_BadSignature(t *testing.T) {
	value := struct{ Name string }{Name: "Bill"}

	for _, sig := range []string{"", "0x1234", "nothex"} {
		if _, err := signature.FromAddress(value, sig); !errors.Is(err, signature.ErrInvalidSignature) {
			t.Fatalf("Should get ErrInvalidSignature for %q: %v", sig, err)
		}
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	h1, err := signature.Hash(value)
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}

	h2, err := signature.Hash(value)
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}

	if h1 != h2 {
		t.Logf("got: %s", h2)
		t.Logf("exp: %s", h1)
		t.Fatalf("Should get back the same hash twice.")
	}

	if len(h1) != 66 {
		t.Fatalf("Should get back a 32 byte hash: %s", h1)
	}
}
