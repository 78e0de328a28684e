package curves

import (
	"crypto/elliptic"
	"crypto/rand"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Secp256k1 signs with RFC 6979 deterministic nonces, so its signatures are
// byte-stable for identical inputs.
type Secp256k1 struct{}

// NewSecp256k1 returns a new instance of the Secp256k1 curve wrapper
func NewSecp256k1() Curve {
	return &Secp256k1{}
}

func (c *Secp256k1) Name() string {
	return NameSecp256k1
}

func (c *Secp256k1) Params() *elliptic.CurveParams {
	return secp256k1.S256().Params()
}

func (c *Secp256k1) NewScalar() (*big.Int, error) {
	return randScalar(rand.Reader, c.Params().N)
}

func (c *Secp256k1) ScalarBaseMult(k *big.Int) (*big.Int, *big.Int) {
	return secp256k1.S256().ScalarBaseMult(k.Bytes())
}

func (c *Secp256k1) IsOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil {
		return false
	}
	return secp256k1.S256().IsOnCurve(x, y)
}

func (c *Secp256k1) Compress(x, y *big.Int) []byte {
	return publicKey(x, y).SerializeCompressed()
}

func (c *Secp256k1) Sign(d []byte, digest []byte) (*big.Int, *big.Int, error) {
	if len(d) != 32 {
		return nil, nil, errors.Wrap(jpt.ErrMalformedInput, "secp256k1: private scalar must be 32 bytes")
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(d); overflow || k.IsZero() {
		return nil, nil, errors.Wrap(jpt.ErrMalformedInput, "secp256k1: private scalar out of range")
	}
	priv := secp256k1.NewPrivateKey(&k)
	sig := ecdsa.Sign(priv, digest)

	r, s := sig.R(), sig.S()
	rb, sb := r.Bytes(), s.Bytes()
	return new(big.Int).SetBytes(rb[:]), new(big.Int).SetBytes(sb[:]), nil
}

func (c *Secp256k1) Verify(x, y *big.Int, digest []byte, r, s *big.Int) bool {
	if !c.IsOnCurve(x, y) || r == nil || s == nil {
		return false
	}
	if r.Sign() < 0 || s.Sign() < 0 {
		return false
	}

	var rMod, sMod secp256k1.ModNScalar
	if r.BitLen() > 256 || s.BitLen() > 256 {
		return false
	}
	if rMod.SetByteSlice(r.Bytes()) || sMod.SetByteSlice(s.Bytes()) {
		return false
	}

	sig := ecdsa.NewSignature(&rMod, &sMod)
	return sig.Verify(digest, publicKey(x, y))
}

func publicKey(x, y *big.Int) *secp256k1.PublicKey {
	var fx, fy secp256k1.FieldVal
	fx.SetByteSlice(x.Bytes())
	fy.SetByteSlice(y.Bytes())
	return secp256k1.NewPublicKey(&fx, &fy)
}
