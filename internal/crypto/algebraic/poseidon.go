// Package algebraic provides the two-input arithmetic-circuit-friendly hash
// shared by pseudonym derivation, commitment trees and token binding.
package algebraic

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// PoseidonName identifies circomlib Poseidon over the BN254 scalar field with
// width 3 (two inputs), 8 full rounds and 57 partial rounds.
const PoseidonName = "poseidon-bn254-t3-rf8-rp57-v1"

// Poseidon implements jpt.Hasher.
type Poseidon struct {
	modulus *big.Int
}

// NewPoseidon returns the Poseidon hasher.
func NewPoseidon() jpt.Hasher {
	return &Poseidon{modulus: ecc.BN254.ScalarField()}
}

func (p *Poseidon) Name() string {
	return PoseidonName
}

func (p *Poseidon) Modulus() *big.Int {
	return new(big.Int).Set(p.modulus)
}

func (p *Poseidon) Hash2(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "poseidon: nil input")
	}
	if !p.inField(a) || !p.inField(b) {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "poseidon: input outside the scalar field")
	}
	out, err := poseidon.Hash([]*big.Int{a, b})
	if err != nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, err.Error())
	}
	return out, nil
}

func (p *Poseidon) inField(x *big.Int) bool {
	return x.Sign() >= 0 && x.Cmp(p.modulus) < 0
}
