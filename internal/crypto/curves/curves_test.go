package curves

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

func TestGet(t *testing.T) {
	c, err := Get("")
	require.NoError(t, err)
	assert.Equal(t, NameP256, c.Name())

	c, err = Get(NameSecp256k1)
	require.NoError(t, err)
	assert.Equal(t, NameSecp256k1, c.Name())

	_, err = Get("Ed25519")
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))
}

func TestNormalizeLowS(t *testing.T) {
	n := big.NewInt(101)

	assert.Equal(t, int64(50), NormalizeLowS(big.NewInt(50), n).Int64())
	assert.Equal(t, int64(50), NormalizeLowS(big.NewInt(51), n).Int64())
	assert.Equal(t, int64(1), NormalizeLowS(big.NewInt(100), n).Int64())

	s := big.NewInt(7)
	out := NormalizeLowS(s, n)
	out.SetInt64(9)
	assert.Equal(t, int64(7), s.Int64())
}

func TestSignVerify(t *testing.T) {
	digest := sha256.Sum256([]byte("Hello, Issuer!"))

	for _, c := range []Curve{NewP256(nil), NewSecp256k1()} {
		t.Run(c.Name(), func(t *testing.T) {
			k, err := c.NewScalar()
			require.NoError(t, err)
			assert.True(t, k.Sign() > 0 && k.Cmp(c.Params().N) < 0)

			x, y := c.ScalarBaseMult(k)
			assert.True(t, c.IsOnCurve(x, y))

			r, s, err := c.Sign(k.FillBytes(make([]byte, 32)), digest[:])
			require.NoError(t, err)
			assert.True(t, c.Verify(x, y, digest[:], r, s))

			// Both s and n-s verify under ECDSA.
			alt := new(big.Int).Sub(c.Params().N, s)
			assert.True(t, c.Verify(x, y, digest[:], r, alt))

			other := sha256.Sum256([]byte("tampered"))
			assert.False(t, c.Verify(x, y, other[:], r, s))

			assert.False(t, c.Verify(x, new(big.Int).Add(y, big.NewInt(1)), digest[:], r, s))
		})
	}
}

func TestSignRejectsBadScalar(t *testing.T) {
	digest := sha256.Sum256([]byte("m"))
	for _, c := range []Curve{NewP256(nil), NewSecp256k1()} {
		_, _, err := c.Sign(make([]byte, 32), digest[:])
		assert.True(t, errors.Is(err, jpt.ErrMalformedInput), c.Name())

		_, _, err = c.Sign(c.Params().N.FillBytes(make([]byte, 32)), digest[:])
		assert.True(t, errors.Is(err, jpt.ErrMalformedInput), c.Name())
	}
}

func TestCompress(t *testing.T) {
	for _, c := range []Curve{NewP256(nil), NewSecp256k1()} {
		x, y := c.ScalarBaseMult(big.NewInt(3))
		out := c.Compress(x, y)
		require.Len(t, out, 33)
		assert.Equal(t, byte(2+y.Bit(0)), out[0], c.Name())
		assert.Equal(t, x.FillBytes(make([]byte, 32)), out[1:], c.Name())
	}
}

func TestSecp256k1Deterministic(t *testing.T) {
	c := NewSecp256k1()
	d := big.NewInt(123456789).FillBytes(make([]byte, 32))
	digest := sha256.Sum256([]byte("rfc6979"))

	r1, s1, err := c.Sign(d, digest[:])
	require.NoError(t, err)
	r2, s2, err := c.Sign(d, digest[:])
	require.NoError(t, err)
	assert.Equal(t, 0, r1.Cmp(r2))
	assert.Equal(t, 0, s1.Cmp(s2))
}
