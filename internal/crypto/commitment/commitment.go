// Package commitment builds the claim commitment: a complete binary tree of
// algebraic hashes over ordered (path, value) claims.
package commitment

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/hashtofield"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Tree holds every level of the commitment tree. levels[0] are the padded
// leaves and the last level holds only the root.
type Tree struct {
	levels [][]*big.Int
	claims int
}

// ValueToField maps a claim value into the hasher's field. Strings are hashed
// to the BN254 scalar field; numbers are taken as-is and must already lie in
// [0, modulus).
func ValueToField(v jpt.ClaimValue, modulus *big.Int) (*big.Int, error) {
	switch val := v.(type) {
	case jpt.StringValue:
		return hashtofield.HashStringBN254Fr(string(val))
	case jpt.NumberValue:
		n := val.Int()
		if n.Sign() < 0 || n.Cmp(modulus) >= 0 {
			return nil, errors.Wrapf(jpt.ErrMalformedInput, "number claim %s outside the field", n)
		}
		return n, nil
	case nil:
		return nil, errors.Wrap(jpt.ErrMalformedInput, "missing claim value")
	default:
		return nil, errors.Wrapf(jpt.ErrMalformedInput, "unsupported claim value %T", v)
	}
}

// Leaf computes H(field(path), field(value)).
func Leaf(h jpt.Hasher, c jpt.Claim) (*big.Int, error) {
	pathField, err := ValueToField(jpt.StringValue(c.Path), h.Modulus())
	if err != nil {
		return nil, errors.Wrapf(err, "claim %q path", c.Path)
	}
	valueField, err := ValueToField(c.Value, h.Modulus())
	if err != nil {
		return nil, errors.Wrapf(err, "claim %q value", c.Path)
	}
	return h.Hash2(pathField, valueField)
}

// PaddedSize returns the leaf count of a tree over n claims: the next power
// of two, and never less than two.
func PaddedSize(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// Build hashes each claim into a leaf and builds the tree over them.
func Build(h jpt.Hasher, claims []jpt.Claim) (*Tree, error) {
	if len(claims) == 0 {
		return nil, jpt.ErrEmptyClaimSet
	}
	leaves := make([]*big.Int, len(claims))
	for i, c := range claims {
		leaf, err := Leaf(h, c)
		if err != nil {
			return nil, err
		}
		leaves[i] = leaf
	}
	return BuildFromLeaves(h, leaves)
}

// BuildFromLeaves right-pads leaves with H(0, 0) and hashes pairs bottom-up
// until one root remains.
func BuildFromLeaves(h jpt.Hasher, leaves []*big.Int) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, jpt.ErrEmptyClaimSet
	}

	pad, err := h.Hash2(big.NewInt(0), big.NewInt(0))
	if err != nil {
		return nil, err
	}

	level := make([]*big.Int, PaddedSize(len(leaves)))
	copy(level, leaves)
	for i := len(leaves); i < len(level); i++ {
		level[i] = pad
	}

	levels := [][]*big.Int{level}
	for len(level) > 1 {
		upper := make([]*big.Int, len(level)/2)
		for i := range upper {
			upper[i], err = h.Hash2(level[2*i], level[2*i+1])
			if err != nil {
				return nil, err
			}
		}
		levels = append(levels, upper)
		level = upper
	}

	return &Tree{levels: levels, claims: len(leaves)}, nil
}

// Root returns the commitment root.
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.levels[len(t.levels)-1][0])
}

// Leaves returns the padded leaf level.
func (t *Tree) Leaves() []*big.Int {
	return copyLevel(t.levels[0])
}

// LeafCount returns the padded number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// ClaimCount returns the number of leaves that carry a claim.
func (t *Tree) ClaimCount() int {
	return t.claims
}

// Depth returns the number of hashing levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Level returns a copy of level i, counting from the leaves.
func (t *Tree) Level(i int) []*big.Int {
	return copyLevel(t.levels[i])
}

func copyLevel(level []*big.Int) []*big.Int {
	out := make([]*big.Int, len(level))
	for i, v := range level {
		out[i] = new(big.Int).Set(v)
	}
	return out
}
