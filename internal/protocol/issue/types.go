package issue

import (
	"math/big"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/commitment"
)

// Issuance stages reported in jpt.IssuanceError.
const (
	StageValidate = "validate"
	StageHeader   = "header"
	StagePayload  = "payload"
	StageCommit   = "commit"
	StageBind     = "bind"
	StageSign     = "sign"
)

// Result carries the token together with the intermediate values a prover or
// verifier needs to reproduce it.
type Result struct {
	Token string

	HeaderSegment    string
	PayloadSegment   string
	SignatureSegment string

	HeaderField *big.Int
	Pseudonym   *big.Int
	Tree        *commitment.Tree
	Binding     *big.Int
	Digest      []byte

	R *big.Int
	S *big.Int
}

// Root returns the claim commitment root.
func (r *Result) Root() *big.Int {
	return r.Tree.Root()
}
