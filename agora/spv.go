package agora

import (
	"fmt"

	"github.com/lumenledger/stoa/crypto"
)

// VerifySPV folds leafHash up path and checks it reaches root, the
// structural check backing the /spv/:hash endpoint.
func VerifySPV(leafHash []byte, path *MerklePath, rootHex string) error {
	root, err := crypto.DecodeHexRoot(rootHex)
	if err != nil {
		return fmt.Errorf("decode root: %w", err)
	}
	if !crypto.VerifyMerklePath(leafHash, root, path.Siblings, path.Index) {
		return fmt.Errorf("merkle path does not fold up to root %s", rootHex)
	}
	return nil
}
