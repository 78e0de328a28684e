// Package hashtofield implements expand_message_xmd and hash_to_field from
// RFC 9380 over a fixed table of prime-field profiles.
package hashtofield

import (
	"hash"
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

const (
	maxDSTLen    = 255
	maxOutputLen = 65535
	maxBlocks    = 255
)

// ExpandMessageXMD implements expand_message_xmd (RFC 9380, section 5.3.1).
// All bounds are checked before any hashing takes place.
func ExpandMessageXMD(newHash func() hash.Hash, msg, dst []byte, lenInBytes int) ([]byte, error) {
	if newHash == nil {
		return nil, errors.Wrap(jpt.ErrInvalidParameters, "expand_message_xmd: nil hash")
	}
	if len(dst) > maxDSTLen {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "expand_message_xmd: len(DST) %d > %d", len(dst), maxDSTLen)
	}
	if lenInBytes <= 0 || lenInBytes > maxOutputLen {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "expand_message_xmd: lenInBytes %d out of range", lenInBytes)
	}

	h := newHash()
	bInBytes := h.Size()
	sInBytes := h.BlockSize()

	ell := (lenInBytes + bInBytes - 1) / bInBytes
	if ell > maxBlocks {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "expand_message_xmd: ell %d > %d", ell, maxBlocks)
	}

	// DST' = DST || I2OSP(len(DST), 1)
	dstPrime := make([]byte, len(dst)+1)
	copy(dstPrime, dst)
	dstPrime[len(dst)] = byte(len(dst))

	// msg' = Z_pad || msg || I2OSP(len, 2) || I2OSP(0, 1) || DST'
	h.Write(make([]byte, sInBytes))
	h.Write(msg)
	h.Write([]byte{byte(lenInBytes >> 8), byte(lenInBytes), 0})
	h.Write(dstPrime)
	b0 := h.Sum(nil)

	h.Reset()
	h.Write(b0)
	h.Write([]byte{1})
	h.Write(dstPrime)
	bi := h.Sum(nil)

	out := make([]byte, 0, ell*bInBytes)
	out = append(out, bi...)

	for i := 2; i <= ell; i++ {
		xored := make([]byte, bInBytes)
		for j := range xored {
			xored[j] = b0[j] ^ bi[j]
		}
		h.Reset()
		h.Write(xored)
		h.Write([]byte{byte(i)})
		h.Write(dstPrime)
		bi = h.Sum(nil)
		out = append(out, bi...)
	}

	return out[:lenInBytes], nil
}

// HashToField expands msg into count*L bytes and reduces each L-byte
// big-endian chunk modulo p.
func HashToField(newHash func() hash.Hash, L int, msg []byte, count int, dst []byte, p *big.Int) ([]*big.Int, error) {
	if count < 1 || L < 1 {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "hash_to_field: count=%d L=%d", count, L)
	}
	if p == nil || p.Sign() <= 0 {
		return nil, errors.Wrap(jpt.ErrInvalidParameters, "hash_to_field: modulus must be positive")
	}
	if count > maxOutputLen/L {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "hash_to_field: count*L exceeds %d (count=%d L=%d)", maxOutputLen, count, L)
	}

	uniform, err := ExpandMessageXMD(newHash, msg, dst, count*L)
	if err != nil {
		return nil, err
	}

	elements := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		e := new(big.Int).SetBytes(uniform[i*L : (i+1)*L])
		elements[i] = e.Mod(e, p)
	}
	return elements, nil
}
