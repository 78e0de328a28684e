package hashtofield

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkhash "github.com/consensys/gnark-crypto/field/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

func TestExpandMessageXMDVector(t *testing.T) {
	// RFC 9380, appendix K.1, len_in_bytes = 0x20
	dst := []byte("QUUX-V01-CS02-with-expander-SHA256-128")
	out, err := ExpandMessageXMD(sha256.New, []byte(""), dst, 0x20)
	require.NoError(t, err)
	assert.Equal(t, "68a985b87eb6b46952128911f2a4412bbc302a9d759667f87f7a21d803f07235", hex.EncodeToString(out))

	out, err = ExpandMessageXMD(sha256.New, []byte("abc"), dst, 0x20)
	require.NoError(t, err)
	assert.Equal(t, "d8ccab23b5985ccea865c6c97b6e5b8350e794e603b4b97902f53a8a0d605615", hex.EncodeToString(out))
}

func TestExpandMessageXMDMatchesGnark(t *testing.T) {
	dst := []byte(DSTBN254Fr)
	msgs := []string{"", "abc", "abcdef0123456789", strings.Repeat("q", 300)}
	// gnark's ExpandMsgXmd only supports outputs of at least one digest.
	lengths := []int{32, 48, 96, 200}

	for _, m := range msgs {
		for _, l := range lengths {
			ours, err := ExpandMessageXMD(sha256.New, []byte(m), dst, l)
			require.NoError(t, err)
			theirs, err := gnarkhash.ExpandMsgXmd([]byte(m), dst, l)
			require.NoError(t, err)
			assert.Equal(t, theirs, ours, "msg=%q len=%d", m, l)
		}
	}
}

func TestExpandMessageXMDBounds(t *testing.T) {
	longDST := make([]byte, 256)

	tests := []struct {
		name   string
		dst    []byte
		length int
	}{
		{"dst too long", longDST, 32},
		{"length too large", []byte("dst"), 65536},
		{"zero length", []byte("dst"), 0},
		// 255 * 32 = 8160 is the largest valid output for SHA-256.
		{"too many blocks", []byte("dst"), 8161},
	}
	for _, tt := range tests {
		_, err := ExpandMessageXMD(sha256.New, []byte("msg"), tt.dst, tt.length)
		assert.True(t, errors.Is(err, jpt.ErrInvalidParameters), tt.name)
	}

	_, err := ExpandMessageXMD(sha256.New, []byte("msg"), make([]byte, 255), 8160)
	assert.NoError(t, err)

	// SHA-384 has 48-byte blocks, so 8161 is within its 255-block budget.
	_, err = ExpandMessageXMD(sha512.New384, []byte("msg"), []byte("dst"), 8161)
	assert.NoError(t, err)

	_, err = ExpandMessageXMD(nil, []byte("msg"), []byte("dst"), 32)
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))
}

func TestHashToFieldMatchesGnarkFr(t *testing.T) {
	dst := []byte(DSTBN254Fr)
	for _, m := range []string{"", "Taro", "https://issuer.example", "/given_name"} {
		ours, err := HashToField(sha256.New, 48, []byte(m), 2, dst, fr.Modulus())
		require.NoError(t, err)

		theirs, err := fr.Hash([]byte(m), dst, 2)
		require.NoError(t, err)

		for i := range ours {
			var want big.Int
			theirs[i].BigInt(&want)
			assert.Equal(t, 0, want.Cmp(ours[i]), "msg=%q element %d", m, i)
		}
	}
}

func TestHashToFieldDeterministic(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(name)
		require.NoError(t, err)

		a, err := p.HashToField([]byte("message"), []byte("DST"), 3)
		require.NoError(t, err)
		b, err := p.HashToField([]byte("message"), []byte("DST"), 3)
		require.NoError(t, err)

		require.Len(t, a, 3)
		for i := range a {
			assert.Equal(t, 0, a[i].Cmp(b[i]), name)
			assert.True(t, a[i].Sign() >= 0 && a[i].Cmp(p.Modulus()) < 0, name)
		}

		c, err := p.HashToField([]byte("message!"), []byte("DST"), 1)
		require.NoError(t, err)
		assert.NotEqual(t, 0, a[0].Cmp(c[0]), name)
	}
}

func TestHashToFieldInvalid(t *testing.T) {
	_, err := HashToField(sha256.New, 48, []byte("m"), 0, []byte("d"), big.NewInt(7))
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))

	_, err = HashToField(sha256.New, 48, []byte("m"), 1, []byte("d"), nil)
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))

	_, err = HashToField(sha256.New, 48, []byte("m"), 1, []byte("d"), big.NewInt(0))
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))

	// 1366 * 48 > 65535
	_, err = HashToField(sha256.New, 48, []byte("m"), 1366, []byte("d"), big.NewInt(7))
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))

	// On 64-bit platforms count*48 wraps around to 32.
	wrapping := ^uint64(0)/48 + 1
	assert.NotPanics(t, func() {
		_, err = HashToField(sha256.New, 48, []byte("m"), int(wrapping), []byte("d"), big.NewInt(97))
	})
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))
}

func TestExpandMessageXMDShortOutput(t *testing.T) {
	dst := []byte("QUUX-V01-CS02-with-expander-SHA256-128")
	full, err := ExpandMessageXMD(sha256.New, []byte("abc"), dst, 0x20)
	require.NoError(t, err)

	// The length is bound into b_0, so a short output is not a prefix of a longer one.
	short, err := ExpandMessageXMD(sha256.New, []byte("abc"), dst, 1)
	require.NoError(t, err)
	assert.Equal(t, "61", hex.EncodeToString(short))
	again, err := ExpandMessageXMD(sha256.New, []byte("abc"), dst, 1)
	require.NoError(t, err)
	assert.Equal(t, short, again)
	assert.NotEqual(t, full[:1], short)
}

func TestProfiles(t *testing.T) {
	_, err := Lookup("P521")
	assert.True(t, errors.Is(err, jpt.ErrInvalidParameters))

	p, err := Lookup(BN254Fr)
	require.NoError(t, err)
	assert.Equal(t, 48, p.L())
	assert.Equal(t, "21888242871839275222246405745257275088548364400416034343698204186575808495617", p.Modulus().String())

	// Mutating the returned modulus must not leak into the table.
	p.Modulus().SetInt64(1)
	again, _ := Lookup(BN254Fr)
	assert.Equal(t, 0, again.Modulus().Cmp(fr.Modulus()))

	p384, err := Lookup(P384)
	require.NoError(t, err)
	assert.Equal(t, 72, p384.L())
	assert.Equal(t, 48, p384.Hash()().Size())

	bn, _ := Lookup(BN254)
	assert.Equal(t, "21888242871839275222246405745257275088696311157297823662689037894645226208583", bn.Modulus().String())

	bls, _ := Lookup(BLS12381G1)
	assert.Equal(t, "73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001", bls.Modulus().Text(16))
}

func TestHashStringBN254Fr(t *testing.T) {
	a, err := HashStringBN254Fr("https://issuer.example")
	require.NoError(t, err)
	b, err := HashBytesBN254Fr([]byte("https://issuer.example"))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(b))
	assert.True(t, a.Cmp(fr.Modulus()) < 0)
}
