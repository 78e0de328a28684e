package commitment

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Path is the inclusion path of one leaf. Indices[i] is 0 when the node at
// height i is a left child and 1 when it is a right child; Elements[i] is its
// sibling.
type Path struct {
	Elements []*big.Int
	Indices  []int
}

// Path returns the inclusion path of leaf i.
func (t *Tree) Path(i int) (*Path, error) {
	if i < 0 || i >= t.LeafCount() {
		return nil, errors.Wrapf(jpt.ErrInvalidParameters, "leaf index %d out of range", i)
	}
	p := &Path{
		Elements: make([]*big.Int, t.Depth()),
		Indices:  make([]int, t.Depth()),
	}
	idx := i
	for h := 0; h < t.Depth(); h++ {
		p.Indices[h] = idx & 1
		p.Elements[h] = new(big.Int).Set(t.levels[h][idx^1])
		idx >>= 1
	}
	return p, nil
}

// VerifyPath recomputes the root from leaf along p and compares it to root.
func VerifyPath(h jpt.Hasher, leaf *big.Int, p *Path, root *big.Int) (bool, error) {
	if p == nil || len(p.Elements) != len(p.Indices) {
		return false, errors.Wrap(jpt.ErrMalformedInput, "inconsistent path")
	}
	node := leaf
	var err error
	for i, sibling := range p.Elements {
		switch p.Indices[i] {
		case 0:
			node, err = h.Hash2(node, sibling)
		case 1:
			node, err = h.Hash2(sibling, node)
		default:
			return false, errors.Wrapf(jpt.ErrMalformedInput, "path index %d", p.Indices[i])
		}
		if err != nil {
			return false, err
		}
	}
	return node.Cmp(root) == 0, nil
}
