package ledger

// VoterCard delegates signing authority from a validator to a one-shot
// temporary key for a single ballot.
type VoterCard struct {
	ValidatorAddress string `json:"validator_address"`
	TemporaryAddress string `json:"temporary_address"`
	TemporaryPubKey  string `json:"temporary_pub_key"` // hex ed25519 public key backing TemporaryAddress
	ExpiresAt        string `json:"expires_at"`
	Signature        string `json:"signature"` // outer signature, by the validator's enrollment key
}

// BallotAnswer is the externally-visible tallying state of a ballot: one of
// the three decoded answers, or REJECT if any acceptance rule failed or
// decryption failed, or PENDING before counting begins.
type BallotAnswer string

const (
	BallotPending BallotAnswer = "PENDING"
	BallotYes     BallotAnswer = "YES"
	BallotNo      BallotAnswer = "NO"
	BallotBlank   BallotAnswer = "BLANK"
	BallotReject  BallotAnswer = "REJECT"
)

// Ballot is a single vote cast on a Proposal. One accepted ballot survives
// per (ProposalID, ValidatorAddress): last-write-wins by BlockHeight among
// those with the highest Sequence.
type Ballot struct {
	ProposalID       string       `json:"proposal_id"`
	ValidatorAddress string       `json:"validator_address"`
	BlockHeight      uint64       `json:"block_height"`
	EncryptedBallot  []byte       `json:"encrypted_ballot"`
	VoterCard        VoterCard    `json:"voter_card"`
	Signature        string       `json:"signature"` // inner signature over BallotData, by the temporary key
	Sequence         uint32       `json:"sequence"`
	Answer           BallotAnswer `json:"ballot_answer"`
	RejectReason     string       `json:"reject_reason,omitempty"`
}
