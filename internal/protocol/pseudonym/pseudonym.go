// Package pseudonym derives a recipient's pseudonymous public key from a user
// secret, a P-256 device key and a context string.
package pseudonym

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/hashtofield"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Size is the width of an encoded pseudonym.
const Size = 32

// chunkSplit is where the 33-byte compressed device key is cut so that both
// halves fit in the BN254 scalar field.
const chunkSplit = 31

// Result is the output of a derivation.
type Result struct {
	Pseudonym    *big.Int
	ContextField *big.Int
}

// Derive computes
//
//	deviceField = H(chunk1, chunk2)
//	uds         = H(userSecret, deviceField)
//	pseudonym   = H(uds, hashToField(context))
//
// where chunk1 and chunk2 are the first 31 and the last 2 bytes of the
// compressed device key.
func Derive(h jpt.Hasher, userSecret, deviceX, deviceY *big.Int, context string) (*Result, error) {
	if userSecret == nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "missing user secret")
	}
	if userSecret.Sign() < 0 || userSecret.Cmp(h.Modulus()) >= 0 {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "user secret outside the scalar field")
	}

	device := curves.NewP256(nil)
	if !device.IsOnCurve(deviceX, deviceY) {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "device key is not a P-256 point")
	}
	compressed := device.Compress(deviceX, deviceY)
	chunk1 := new(big.Int).SetBytes(compressed[:chunkSplit])
	chunk2 := new(big.Int).SetBytes(compressed[chunkSplit:])

	contextField, err := hashtofield.HashStringBN254Fr(context)
	if err != nil {
		return nil, errors.Wrap(err, "context")
	}

	deviceField, err := h.Hash2(chunk1, chunk2)
	if err != nil {
		return nil, errors.Wrap(err, "device field")
	}
	uds, err := h.Hash2(userSecret, deviceField)
	if err != nil {
		return nil, errors.Wrap(err, "user device secret")
	}
	p, err := h.Hash2(uds, contextField)
	if err != nil {
		return nil, errors.Wrap(err, "pseudonym")
	}

	return &Result{Pseudonym: p, ContextField: contextField}, nil
}

// NewUserSecret draws 32 random bytes from r and hashes them into the BN254
// scalar field. A nil reader uses crypto/rand.
func NewUserSecret(r io.Reader) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "read randomness")
	}
	return hashtofield.HashBytesBN254Fr(buf)
}

// Encode returns the base64url form of the 32-byte big-endian pseudonym.
func Encode(p *big.Int) (string, error) {
	if p == nil || p.Sign() < 0 || p.BitLen() > 8*Size {
		return "", errors.Wrap(jpt.ErrMalformedInput, "pseudonym does not fit in 32 bytes")
	}
	return base64.RawURLEncoding.EncodeToString(p.FillBytes(make([]byte, Size))), nil
}

// Decode parses a base64url pseudonym. Padding characters are tolerated.
func Decode(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "empty pseudonym")
	}
	b, err := base64.RawURLEncoding.DecodeString(trimPadding(s))
	if err != nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, err.Error())
	}
	return new(big.Int).SetBytes(b), nil
}

func trimPadding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}

// JWK returns the symmetric-key JWK wrapper used to display a pseudonym.
func (r *Result) JWK() ([]byte, error) {
	k, err := Encode(r.Pseudonym)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Kty string `json:"kty"`
		K   string `json:"k"`
	}{Kty: "oct", K: k})
}
