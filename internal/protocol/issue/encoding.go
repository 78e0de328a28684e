package issue

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/hashtofield"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

const (
	segmentSeparator = "."
	claimSeparator   = "~"
	bindingSize      = 32
)

var b64 = base64.RawURLEncoding

// EncodeHeader base64url-encodes the raw header text.
func EncodeHeader(header string) string {
	return b64.EncodeToString([]byte(header))
}

// HeaderField hashes the encoded header segment into the BN254 scalar field.
func HeaderField(headerSegment string) (*big.Int, error) {
	return hashtofield.HashStringBN254Fr(headerSegment)
}

// EncodePair base64url-encodes the JSON array ["path", value].
func EncodePair(c jpt.Claim) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]interface{}{c.Path, c.Value}); err != nil {
		return "", errors.Wrapf(jpt.ErrMalformedInput, "encode claim %q: %v", c.Path, err)
	}
	return b64.EncodeToString(unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 raw, as JSON.stringify
// does. encoding/json always escapes them.
func unescapeLineSeparators(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// Keep escape pairs intact so an escaped backslash is never rescanned.
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// EncodePayload encodes each claim and joins them with "~".
func EncodePayload(claims []jpt.Claim) (string, error) {
	if len(claims) == 0 {
		return "", jpt.ErrEmptyClaimSet
	}
	parts := make([]string, len(claims))
	for i, c := range claims {
		p, err := EncodePair(c)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return strings.Join(parts, claimSeparator), nil
}

// ComputeBinding returns H(H(headerField, pseudonym), root).
func ComputeBinding(h jpt.Hasher, headerField, pseudonym, root *big.Int) (*big.Int, error) {
	inner, err := h.Hash2(headerField, pseudonym)
	if err != nil {
		return nil, errors.Wrap(err, "bind header and pseudonym")
	}
	outer, err := h.Hash2(inner, root)
	if err != nil {
		return nil, errors.Wrap(err, "bind commitment root")
	}
	return outer, nil
}

// Digest returns SHA-256 over the 32-byte big-endian binding.
func Digest(binding *big.Int) ([]byte, error) {
	if binding == nil || binding.Sign() < 0 || binding.BitLen() > 8*bindingSize {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "binding does not fit in 32 bytes")
	}
	sum := sha256.Sum256(binding.FillBytes(make([]byte, bindingSize)))
	return sum[:], nil
}

// EncodeSignature base64url-encodes r || s, 32 bytes each.
func EncodeSignature(r, s *big.Int) string {
	raw := make([]byte, 2*bindingSize)
	r.FillBytes(raw[:bindingSize])
	s.FillBytes(raw[bindingSize:])
	return b64.EncodeToString(raw)
}

// SplitToken splits a token into its header, payload and signature segments.
// Issuance never parses its own output; this exists for callers that inspect
// what they were handed.
func SplitToken(token string) (header string, claims []string, signature string, err error) {
	parts := strings.Split(token, segmentSeparator)
	if len(parts) != 3 {
		return "", nil, "", errors.Wrapf(jpt.ErrMalformedInput, "expected 3 segments, got %d", len(parts))
	}
	return parts[0], strings.Split(parts[1], claimSeparator), parts[2], nil
}
