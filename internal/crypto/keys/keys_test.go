package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

const sampleKeyHex = "0x576e3f0b4ddb5663457b354d70357ecf41a93e2920231ad792342d47ea162c71"

func TestParsePrivateKeyFormats(t *testing.T) {
	want, err := hex.DecodeString(strings.TrimPrefix(sampleKeyHex, "0x"))
	require.NoError(t, err)

	hexList := make([]string, len(want))
	decList := make([]string, len(want))
	for i, b := range want {
		hexList[i] = fmt.Sprintf("0x%02x", b)
		decList[i] = fmt.Sprintf("%d", b)
	}

	for _, in := range []string{
		sampleKeyHex,
		strings.TrimPrefix(sampleKeyHex, "0x"),
		"[" + strings.Join(hexList, ", ") + "]",
		"[" + strings.Join(decList, ",") + "]",
	} {
		got, err := ParsePrivateKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestParsePrivateKeyErrors(t *testing.T) {
	for _, in := range []string{
		"0x576e",
		"zz",
		"[0x57, 0x6e",
		"[256]",
		"[]",
		"[0x57, 0x6e]",
	} {
		_, err := ParsePrivateKey(in)
		assert.True(t, errors.Is(err, jpt.ErrMalformedInput), in)
	}
}

func TestFromPrivate(t *testing.T) {
	d, err := ParsePrivateKey(sampleKeyHex)
	require.NoError(t, err)

	kp, err := FromPrivate(curves.NewP256(nil), d)
	require.NoError(t, err)
	assert.Len(t, kp.X, ScalarSize)
	assert.Len(t, kp.Y, ScalarSize)

	x, y := kp.PublicPoint()
	assert.True(t, kp.Curve.IsOnCurve(x, y))

	_, err = FromPrivate(curves.NewP256(nil), d[:31])
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))

	_, err = FromPrivate(curves.NewP256(nil), make([]byte, 32))
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))
}

func TestGenerate(t *testing.T) {
	for _, c := range []curves.Curve{curves.NewP256(nil), curves.NewSecp256k1()} {
		a, err := Generate(c)
		require.NoError(t, err)
		b, err := Generate(c)
		require.NoError(t, err)
		assert.NotEqual(t, a.D, b.D, c.Name())
		assert.Len(t, a.D, ScalarSize)
	}
}

func TestJWK(t *testing.T) {
	d, _ := ParsePrivateKey(sampleKeyHex)
	kp, err := FromPrivate(curves.NewP256(nil), d)
	require.NoError(t, err)

	pub, err := kp.PublicJWK("1")
	require.NoError(t, err)
	raw, err := json.Marshal(pub)
	require.NoError(t, err)

	var parsed jose.JSONWebKey
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "1", parsed.KeyID)
	assert.True(t, parsed.IsPublic())

	ecPub, ok := parsed.Key.(*ecdsa.PublicKey)
	require.True(t, ok)
	x, y := kp.PublicPoint()
	assert.Equal(t, 0, x.Cmp(ecPub.X))
	assert.Equal(t, 0, y.Cmp(ecPub.Y))

	priv, err := kp.JWK("1")
	require.NoError(t, err)
	assert.False(t, priv.IsPublic())
	assert.True(t, priv.Valid())

	tp, err := kp.Thumbprint()
	require.NoError(t, err)
	assert.Len(t, tp, 43)

	k1, err := Generate(curves.NewSecp256k1())
	require.NoError(t, err)
	_, err = k1.PublicJWK("")
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))
}

func TestParsePublicKey(t *testing.T) {
	c := curves.NewP256(nil)
	x, y := c.ScalarBaseMult(big.NewInt(987654321))
	raw := hex.EncodeToString(append(x.FillBytes(make([]byte, 32)), y.FillBytes(make([]byte, 32))...))

	for _, in := range []string{raw, "0x" + raw, "0x04" + raw, "04" + raw} {
		px, py, err := ParsePublicKey(c, in)
		require.NoError(t, err, in)
		assert.Equal(t, 0, x.Cmp(px))
		assert.Equal(t, 0, y.Cmp(py))
	}

	offCurve := raw[:127] + string("0123456789abcdef"[(strings.IndexByte("0123456789abcdef", raw[127])+1)%16])
	_, _, err := ParsePublicKey(c, offCurve)
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))

	_, _, err = ParsePublicKey(c, raw[:64])
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))

	_, _, err = ParsePublicKey(c, strings.Repeat("zz", 64))
	assert.True(t, errors.Is(err, jpt.ErrMalformedInput))
}
