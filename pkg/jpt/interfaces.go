package jpt

import "math/big"

// Hasher is the fixed two-input algebraic hash used for pseudonym derivation,
// commitment tree nodes and the final binding. Issuance and any verifier must
// agree on Name bit for bit.
type Hasher interface {
	// Name returns a versioned identifier of the hash family and its parameters.
	Name() string

	// Hash2 hashes two field elements into one.
	// Inputs outside [0, Modulus()) are rejected, never reduced.
	Hash2(a, b *big.Int) (*big.Int, error)

	// Modulus returns the prime of the field the hash operates over.
	Modulus() *big.Int
}

// Parameters holds the inputs of a single issuance.
type Parameters struct {
	IssuerKey []byte  // 32-byte big-endian private scalar
	Header    string  // JSON object, serialized
	Pseudonym string  // base64url (no padding) of the recipient pseudonym
	IssuedAt  *int64  // appended as the "/iat" claim when set
	Expiry    *int64  // appended as the "/exp" claim when set
	Claims    []Claim // ordered disclosable claims
}

// AllClaims returns the claim set with the optional iat/exp pairs appended.
func (p *Parameters) AllClaims() []Claim {
	claims := make([]Claim, 0, len(p.Claims)+2)
	claims = append(claims, p.Claims...)
	if p.IssuedAt != nil {
		claims = append(claims, Claim{Path: "/iat", Value: NewNumber(*p.IssuedAt)})
	}
	if p.Expiry != nil {
		claims = append(claims, Claim{Path: "/exp", Value: NewNumber(*p.Expiry)})
	}
	return claims
}
