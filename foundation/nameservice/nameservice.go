// Package nameservice reads a folder of node keys and creates a name
// service lookup for the node ids in the network.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/basicnode/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const keyExtension = ".ecdsa"

// NameService maintains a map of node ids for name lookup.
type NameService struct {
	nodes map[string]string
}

// New constructs a name service with the node ids of the keys found in the
// folder. The name is the file name of the key. A missing folder produces
// an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		nodes: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExtension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		nodeID := signature.PublicKeyToNodeID(privateKey.PublicKey)
		ns.nodes[nodeID] = strings.TrimSuffix(filepath.Base(fileName), keyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ns, nil
		}
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified node id. An unknown node id is
// returned as is.
func (ns *NameService) Lookup(nodeID string) string {
	if ns == nil {
		return nodeID
	}

	name, exists := ns.nodes[nodeID]
	if !exists {
		return nodeID
	}
	return name
}

// Copy returns a copy of the map of node ids and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.nodes))
	for nodeID, name := range ns.nodes {
		cpy[nodeID] = name
	}
	return cpy
}
