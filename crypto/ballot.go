package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// Ballot answers as decoded from an encrypted ballot payload.
type BallotAnswer string

const (
	AnswerYes   BallotAnswer = "YES"
	AnswerNo    BallotAnswer = "NO"
	AnswerBlank BallotAnswer = "BLANK"
)

// HashMulti hashes a sequence of length-prefixed byte strings together,
// giving a domain-separated combination of independent inputs (so that
// HashMulti(a, b) cannot be confused with HashMulti(a || b)).
func HashMulti(parts ...[]byte) []byte {
	var buf []byte
	var lenField [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenField[:], uint32(len(p)))
		buf = append(buf, lenField[:]...)
		buf = append(buf, p...)
	}
	return HashBytes(buf)
}

// VoterCardSigningMessage is the outer message the validator's enrollment
// key signs to delegate voting authority to a temporary key for one ballot.
func VoterCardSigningMessage(validatorAddress, temporaryAddress, temporaryPubKeyHex, expiresAt string) []byte {
	return []byte(validatorAddress + "|" + temporaryAddress + "|" + temporaryPubKeyHex + "|" + expiresAt)
}

// BallotSigningMessage is the inner message the temporary key declared in a
// VoterCard signs: a domain-separated combination of the proposal being
// voted on, the encrypted answer, and the replay-protection sequence.
func BallotSigningMessage(proposalID string, encryptedAnswer []byte, sequence uint32) []byte {
	var seqBytes [4]byte
	binary.BigEndian.PutUint32(seqBytes[:], sequence)
	return HashMulti([]byte(proposalID), encryptedAnswer, seqBytes[:])
}

// DeriveBallotKey computes the per-validator, per-proposal ballot decryption
// key: encrypt_key_derive( hash_multi(preimage, app_name), proposal_id ).
// The result is a 32-byte secretbox key.
func DeriveBallotKey(preimage []byte, appName, proposalID string) *[32]byte {
	stage1 := HashMulti(preimage, []byte(appName))
	stage2 := HashMulti(stage1, []byte(proposalID))
	var key [32]byte
	copy(key[:], stage2)
	return &key
}

// EncryptBallot seals answer under key using XSalsa20-Poly1305 (nacl
// secretbox), prefixing a fresh random nonce to the ciphertext. Used by test
// fixtures and the wallet ballot-builder; Stoa itself only ever decrypts.
func EncryptBallot(key *[32]byte, answer BallotAnswer) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(answer), &nonce, key), nil
}

// DecryptBallot opens an encrypted ballot sealed by EncryptBallot and
// validates the plaintext decodes to one of the three known answers.
func DecryptBallot(key *[32]byte, encrypted []byte) (BallotAnswer, error) {
	if len(encrypted) < 24 {
		return "", errors.New("encrypted ballot too short")
	}
	var nonce [24]byte
	copy(nonce[:], encrypted[:24])
	plain, ok := secretbox.Open(nil, encrypted[24:], &nonce, key)
	if !ok {
		return "", errors.New("ballot decryption failed")
	}
	switch BallotAnswer(plain) {
	case AnswerYes, AnswerNo, AnswerBlank:
		return BallotAnswer(plain), nil
	default:
		return "", errors.New("ballot decoded to an unrecognised answer")
	}
}
