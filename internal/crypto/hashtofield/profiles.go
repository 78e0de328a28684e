package hashtofield

import (
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Profile names.
const (
	P256       = "P256"
	P384       = "P384"
	BN254      = "BN254"   // base field p
	BN254Fr    = "BN254Fr" // scalar field r
	BLS12381G1 = "BLS12381G1"
)

// DSTBN254Fr is the domain separation tag used whenever a string is mapped
// into the BN254 scalar field.
const DSTBN254Fr = "QUUX-V01-CS02-with-BN254Fr_XMD:SHA-256_SSWU_RO_"

// Profile is an immutable {hash, L, modulus} parameter set.
type Profile struct {
	name    string
	newHash func() hash.Hash
	l       int
	modulus *big.Int
}

// Name returns the profile name.
func (p Profile) Name() string { return p.name }

// L returns the number of expanded bytes consumed per field element.
func (p Profile) L() int { return p.l }

// Hash returns the hash constructor.
func (p Profile) Hash() func() hash.Hash { return p.newHash }

// Modulus returns a copy of the field modulus.
func (p Profile) Modulus() *big.Int { return new(big.Int).Set(p.modulus) }

// HashToField hashes msg to count elements of the profile's field.
func (p Profile) HashToField(msg, dst []byte, count int) ([]*big.Int, error) {
	return HashToField(p.newHash, p.l, msg, count, dst, p.modulus)
}

var profiles = map[string]Profile{
	P256: {
		name:    P256,
		newHash: sha256.New,
		l:       48,
		modulus: elliptic.P256().Params().P,
	},
	P384: {
		name:    P384,
		newHash: sha512.New384,
		l:       72,
		modulus: elliptic.P384().Params().P,
	},
	BN254: {
		name:    BN254,
		newHash: sha256.New,
		l:       48,
		modulus: ecc.BN254.BaseField(),
	},
	BN254Fr: {
		name:    BN254Fr,
		newHash: sha256.New,
		l:       48,
		modulus: ecc.BN254.ScalarField(),
	},
	// Kept bit-compatible with existing verifiers, which sample this
	// profile modulo the BLS12-381 group order.
	BLS12381G1: {
		name:    BLS12381G1,
		newHash: sha256.New,
		l:       48,
		modulus: ecc.BLS12_381.ScalarField(),
	},
}

// Lookup returns the named profile.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, errors.Wrapf(jpt.ErrInvalidParameters, "unknown field profile %q", name)
	}
	return p, nil
}

// Names lists the available profiles.
func Names() []string {
	return []string{P256, P384, BN254, BN254Fr, BLS12381G1}
}

// HashStringBN254Fr maps a UTF-8 string to one BN254 scalar field element
// under DSTBN254Fr.
func HashStringBN254Fr(s string) (*big.Int, error) {
	return HashBytesBN254Fr([]byte(s))
}

// HashBytesBN254Fr maps bytes to one BN254 scalar field element under DSTBN254Fr.
func HashBytesBN254Fr(b []byte) (*big.Int, error) {
	out, err := profiles[BN254Fr].HashToField(b, []byte(DSTBN254Fr), 1)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
