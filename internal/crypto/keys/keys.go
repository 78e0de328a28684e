// Package keys handles issuer key pairs: generation, text parsing and JWK export.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/go-jose/go-jose/v3"
	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// ScalarSize is the width of private scalars and coordinates.
const ScalarSize = 32

// KeyPair is an issuer key pair with fixed-width big-endian fields.
type KeyPair struct {
	Curve curves.Curve
	D     []byte
	X     []byte
	Y     []byte
}

// Generate creates a fresh key pair on curve.
func Generate(curve curves.Curve) (*KeyPair, error) {
	k, err := curve.NewScalar()
	if err != nil {
		return nil, errors.Wrap(err, "generate scalar")
	}
	return FromPrivate(curve, k.FillBytes(make([]byte, ScalarSize)))
}

// FromPrivate derives the public point of the 32-byte scalar d.
func FromPrivate(curve curves.Curve, d []byte) (*KeyPair, error) {
	if len(d) != ScalarSize {
		return nil, errors.Wrapf(jpt.ErrMalformedInput, "private key must be %d bytes, got %d", ScalarSize, len(d))
	}
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 || k.Cmp(curve.Params().N) >= 0 {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "private key out of range")
	}
	x, y := curve.ScalarBaseMult(k)
	return &KeyPair{
		Curve: curve,
		D:     append([]byte(nil), d...),
		X:     x.FillBytes(make([]byte, ScalarSize)),
		Y:     y.FillBytes(make([]byte, ScalarSize)),
	}, nil
}

// PublicPoint returns the public key coordinates.
func (k *KeyPair) PublicPoint() (*big.Int, *big.Int) {
	return new(big.Int).SetBytes(k.X), new(big.Int).SetBytes(k.Y)
}

// ECDSA converts the pair to a standard library key. Only P-256 is supported.
func (k *KeyPair) ECDSA() (*ecdsa.PrivateKey, error) {
	if k.Curve.Name() != curves.NameP256 {
		return nil, errors.Wrapf(jpt.ErrMalformedInput, "no JOSE representation for %s", k.Curve.Name())
	}
	x, y := k.PublicPoint()
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y},
		D:         new(big.Int).SetBytes(k.D),
	}, nil
}

// JWK returns the private JWK of the pair.
func (k *KeyPair) JWK(kid string) (*jose.JSONWebKey, error) {
	priv, err := k.ECDSA()
	if err != nil {
		return nil, err
	}
	return &jose.JSONWebKey{Key: priv, KeyID: kid, Algorithm: string(jose.ES256), Use: "sig"}, nil
}

// PublicJWK returns the public JWK of the pair.
func (k *KeyPair) PublicJWK(kid string) (*jose.JSONWebKey, error) {
	priv, err := k.ECDSA()
	if err != nil {
		return nil, err
	}
	return &jose.JSONWebKey{Key: &priv.PublicKey, KeyID: kid, Algorithm: string(jose.ES256), Use: "sig"}, nil
}

// Thumbprint returns the base64url RFC 7638 SHA-256 thumbprint of the public key.
func (k *KeyPair) Thumbprint() (string, error) {
	jwk, err := k.PublicJWK("")
	if err != nil {
		return "", err
	}
	tp, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", errors.Wrap(err, "thumbprint")
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// ParsePrivateKey accepts a 32-byte key written either as hex ("0x576e3f…")
// or as a byte list ("[0x57, 0x6e, …]" or "[87, 110, …]").
func ParsePrivateKey(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	var (
		out []byte
		err error
	)
	if strings.HasPrefix(text, "[") {
		out, err = parseByteList(text)
	} else {
		out, err = hex.DecodeString(strings.TrimPrefix(text, "0x"))
	}
	if err != nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, err.Error())
	}
	if len(out) != ScalarSize {
		return nil, errors.Wrapf(jpt.ErrMalformedInput, "private key must be %d bytes, got %d", ScalarSize, len(out))
	}
	return out, nil
}

func parseByteList(text string) ([]byte, error) {
	if !strings.HasSuffix(text, "]") {
		return nil, errors.New("byte list must be enclosed in brackets")
	}
	body := strings.TrimSpace(text[1 : len(text)-1])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	out := make([]byte, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		var (
			v   uint64
			err error
		)
		if strings.HasPrefix(p, "0x") {
			v, err = strconv.ParseUint(p[2:], 16, 8)
		} else {
			v, err = strconv.ParseUint(p, 10, 8)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// ParsePublicKey parses an uncompressed point written as hex, with or without
// the 0x04 prefix, and checks that it lies on curve.
func ParsePublicKey(curve curves.Curve, text string) (*big.Int, *big.Int, error) {
	h := strings.TrimPrefix(strings.TrimSpace(text), "0x")
	if len(h) == 4*ScalarSize+2 && strings.HasPrefix(h, "04") {
		h = h[2:]
	}
	if len(h) != 4*ScalarSize {
		return nil, nil, errors.Wrap(jpt.ErrMalformedInput, "public key must be 64 bytes of x || y")
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, nil, errors.Wrap(jpt.ErrMalformedInput, err.Error())
	}
	x := new(big.Int).SetBytes(b[:ScalarSize])
	y := new(big.Int).SetBytes(b[ScalarSize:])
	if !curve.IsOnCurve(x, y) {
		return nil, nil, errors.Wrapf(jpt.ErrMalformedInput, "point is not on %s", curve.Name())
	}
	return x, y, nil
}
