package curves

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Curve names accepted by Get.
const (
	NameP256      = "P-256"
	NameSecp256k1 = "secp256k1"
)

// Curve defines the elliptic curve operations needed to issue tokens.
type Curve interface {
	// Name returns the curve name (JOSE "crv").
	Name() string

	// Params returns the curve parameters (Order, etc.)
	Params() *elliptic.CurveParams

	// NewScalar generates a random scalar in [1, N-1]
	NewScalar() (*big.Int, error)

	// ScalarBaseMult computes k * G
	ScalarBaseMult(k *big.Int) (*big.Int, *big.Int)

	// IsOnCurve reports whether (x, y) is a valid point
	IsOnCurve(x, y *big.Int) bool

	// Compress returns the SEC1 compressed encoding 0x02|0x03 || X
	Compress(x, y *big.Int) []byte

	// Sign produces an ECDSA signature over digest with the 32-byte scalar d
	Sign(d []byte, digest []byte) (*big.Int, *big.Int, error)

	// Verify checks an ECDSA signature against the public point (x, y)
	Verify(x, y *big.Int, digest []byte, r, s *big.Int) bool
}

// Get returns the curve registered under name. An empty name selects P-256.
func Get(name string) (Curve, error) {
	switch name {
	case "", NameP256:
		return NewP256(rand.Reader), nil
	case NameSecp256k1:
		return NewSecp256k1(), nil
	default:
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "unsupported curve %q", name)
	}
}

// NormalizeLowS returns n-s when s > n/2 and s otherwise.
func NormalizeLowS(s, n *big.Int) *big.Int {
	half := new(big.Int).Rsh(n, 1)
	if s.Cmp(half) > 0 {
		return new(big.Int).Sub(n, s)
	}
	return new(big.Int).Set(s)
}

type P256 struct {
	rand io.Reader
}

// NewP256 returns the NIST P-256 curve. r is the nonce and key source.
func NewP256(r io.Reader) Curve {
	if r == nil {
		r = rand.Reader
	}
	return &P256{rand: r}
}

func (c *P256) Name() string {
	return NameP256
}

func (c *P256) Params() *elliptic.CurveParams {
	return elliptic.P256().Params()
}

func (c *P256) NewScalar() (*big.Int, error) {
	return randScalar(c.rand, c.Params().N)
}

func (c *P256) ScalarBaseMult(k *big.Int) (*big.Int, *big.Int) {
	return elliptic.P256().ScalarBaseMult(k.FillBytes(make([]byte, 32)))
}

func (c *P256) IsOnCurve(x, y *big.Int) bool {
	if x == nil || y == nil {
		return false
	}
	return elliptic.P256().IsOnCurve(x, y)
}

func (c *P256) Compress(x, y *big.Int) []byte {
	return elliptic.MarshalCompressed(elliptic.P256(), x, y)
}

func (c *P256) Sign(d []byte, digest []byte) (*big.Int, *big.Int, error) {
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 || k.Cmp(c.Params().N) >= 0 {
		return nil, nil, errors.Wrap(jpt.ErrMalformedInput, "p256: private scalar out of range")
	}
	x, y := c.ScalarBaseMult(k)
	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y},
		D:         k,
	}
	return ecdsa.Sign(c.rand, priv, digest)
}

func (c *P256) Verify(x, y *big.Int, digest []byte, r, s *big.Int) bool {
	if !c.IsOnCurve(x, y) || r == nil || s == nil {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	return ecdsa.Verify(pub, digest, r, s)
}

// randScalar returns a uniform integer in [1, n-1].
func randScalar(r io.Reader, n *big.Int) (*big.Int, error) {
	max := new(big.Int).Sub(n, big.NewInt(1))
	k, err := rand.Int(r, max)
	if err != nil {
		return nil, err
	}
	return k.Add(k, big.NewInt(1)), nil
}
