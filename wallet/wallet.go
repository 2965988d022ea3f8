package wallet

import (
	"github.com/lumenledger/stoa/crypto"
	"github.com/lumenledger/stoa/ledger"
)

// Wallet holds a key pair and provides transaction-building helpers used by
// the genkey CLI command and by tests to construct realistic fixtures,
// Stoa itself never signs or originates transactions against the live
// ledger, it only projects what Agora already committed.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key.
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the short human-readable address (first 20 bytes of SHA-256(pubkey)).
func (w *Wallet) Address() string {
	return w.pub.Address()
}

// SignVoterCard delegates voting authority to a temporary key for a single
// ballot, producing the outer VoterCard signature a validator's enrollment
// key makes over the temporary key it is delegating to.
func (w *Wallet) SignVoterCard(temporaryAddress, temporaryPubKey, expiresAt string) ledger.VoterCard {
	msg := crypto.VoterCardSigningMessage(w.Address(), temporaryAddress, temporaryPubKey, expiresAt)
	return ledger.VoterCard{
		ValidatorAddress: w.Address(),
		TemporaryAddress: temporaryAddress,
		TemporaryPubKey:  temporaryPubKey,
		ExpiresAt:        expiresAt,
		Signature:        crypto.Sign(w.priv, msg),
	}
}

// SignBallot produces the inner ballot signature made by the temporary key
// a VoterCard delegates to, over the proposal, encrypted answer and
// replay-protection sequence.
func SignBallot(temporaryPriv crypto.PrivateKey, proposalID string, encryptedAnswer []byte, sequence uint32) string {
	msg := crypto.BallotSigningMessage(proposalID, encryptedAnswer, sequence)
	return crypto.Sign(temporaryPriv, msg)
}

// NewPaymentTx builds an unsigned payment transaction spending inputs into
// outputs, for test fixtures exercising the ingestion pipeline.
func NewPaymentTx(inputs []ledger.TxInput, outputs []ledger.TxOutput, fee uint64) *ledger.Transaction {
	tx := &ledger.Transaction{
		Type:    ledger.TxPayment,
		Inputs:  inputs,
		Outputs: outputs,
		Fee:     fee,
	}
	tx.Hash = tx.ComputeHash()
	return tx
}

// NewGovernancePayloadTx wraps an already-encoded governance payload
// (ProposalFee/Proposal/Ballot) in a zero-value transaction, for test
// fixtures exercising the governance engine.
func NewGovernancePayloadTx(payload []byte, fee uint64) *ledger.Transaction {
	tx := &ledger.Transaction{
		Type:    ledger.TxPayment,
		Payload: payload,
		Fee:     fee,
	}
	tx.Hash = tx.ComputeHash()
	return tx
}
