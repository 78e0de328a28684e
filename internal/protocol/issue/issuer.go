// Package issue binds a header, a recipient pseudonym and a claim commitment
// into a signed three-segment proof token.
package issue

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/commitment"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/keys"
	"github.com/smallyu/go-jpt-issuer/internal/protocol/pseudonym"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// Issuer is immutable after New and safe for concurrent use.
type Issuer struct {
	hasher jpt.Hasher
	curve  curves.Curve
	schema gojsonschema.JSONLoader
}

// New creates an Issuer. Defaults: Poseidon, P-256, DefaultHeaderSchema.
func New(opts ...Option) *Issuer {
	i := defaultIssuer()
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue issues a token with the default Issuer.
func Issue(params *jpt.Parameters) (string, error) {
	res, err := New().Issue(params)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}

// validated is the parsed form of jpt.Parameters.
type validated struct {
	key       *keys.KeyPair
	header    string
	pseudonym *big.Int
	claims    []jpt.Claim
}

// Issue runs the full pipeline. On failure it returns a *jpt.IssuanceError
// and no partial token.
func (i *Issuer) Issue(params *jpt.Parameters) (*Result, error) {
	in, err := i.validate(params)
	if err != nil {
		return nil, jpt.NewIssuanceError(StageValidate, err)
	}

	// 1-2. Header segment and its field element
	res := &Result{HeaderSegment: EncodeHeader(in.header), Pseudonym: in.pseudonym}
	res.HeaderField, err = HeaderField(res.HeaderSegment)
	if err != nil {
		return nil, jpt.NewIssuanceError(StageHeader, err)
	}

	// 3. Payload segment
	res.PayloadSegment, err = EncodePayload(in.claims)
	if err != nil {
		return nil, jpt.NewIssuanceError(StagePayload, err)
	}

	// 4. Claim commitment
	res.Tree, err = commitment.Build(i.hasher, in.claims)
	if err != nil {
		return nil, jpt.NewIssuanceError(StageCommit, err)
	}

	// 5-7. Binding and digest
	res.Binding, err = ComputeBinding(i.hasher, res.HeaderField, in.pseudonym, res.Tree.Root())
	if err != nil {
		return nil, jpt.NewIssuanceError(StageBind, err)
	}
	res.Digest, err = Digest(res.Binding)
	if err != nil {
		return nil, jpt.NewIssuanceError(StageBind, err)
	}

	// 8-9. Low-S ECDSA signature
	if err := i.sign(in.key, res); err != nil {
		return nil, jpt.NewIssuanceError(StageSign, err)
	}

	// 10. Token
	res.Token = strings.Join([]string{res.HeaderSegment, res.PayloadSegment, res.SignatureSegment}, ".")
	return res, nil
}

func (i *Issuer) validate(params *jpt.Parameters) (*validated, error) {
	if params == nil {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "missing parameters")
	}
	if len(params.IssuerKey) != keys.ScalarSize {
		return nil, errors.Wrapf(jpt.ErrMalformedInput, "issuer key must be %d bytes, got %d", keys.ScalarSize, len(params.IssuerKey))
	}
	key, err := keys.FromPrivate(i.curve, params.IssuerKey)
	if err != nil {
		return nil, err
	}

	if err := i.validateHeader(params.Header); err != nil {
		return nil, err
	}

	p, err := pseudonym.Decode(params.Pseudonym)
	if err != nil {
		return nil, errors.Wrap(err, "pseudonym")
	}
	if p.Cmp(i.hasher.Modulus()) >= 0 {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "pseudonym outside the scalar field")
	}

	if params.IssuedAt != nil && params.Expiry != nil && *params.Expiry < *params.IssuedAt {
		return nil, errors.Wrap(jpt.ErrMalformedInput, "expiry precedes issued-at")
	}
	claims := params.AllClaims()
	if len(claims) == 0 {
		return nil, jpt.ErrEmptyClaimSet
	}
	for idx, c := range claims {
		if c.Path == "" {
			return nil, errors.Wrapf(jpt.ErrMalformedInput, "claim %d has an empty path", idx)
		}
		if c.Value == nil {
			return nil, errors.Wrapf(jpt.ErrMalformedInput, "claim %q has no value", c.Path)
		}
		if _, ok := c.Value.(jpt.NumberValue); ok {
			if _, err := commitment.ValueToField(c.Value, i.hasher.Modulus()); err != nil {
				return nil, errors.Wrapf(err, "claim %q", c.Path)
			}
		}
	}

	return &validated{key: key, header: params.Header, pseudonym: p, claims: claims}, nil
}

func (i *Issuer) validateHeader(header string) error {
	if header == "" {
		return errors.Wrap(jpt.ErrMalformedInput, "empty header")
	}
	if !gjson.Valid(header) || !gjson.Parse(header).IsObject() {
		return errors.Wrap(jpt.ErrMalformedInput, "header is not a JSON object")
	}
	if i.schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(i.schema, gojsonschema.NewStringLoader(header))
	if err != nil {
		return errors.Wrap(jpt.ErrInvalidParameters, fmt.Sprintf("header schema: %v", err))
	}
	if !result.Valid() {
		return errors.Wrap(jpt.ErrMalformedInput, describeSchemaErrors(result))
	}
	return nil
}

func describeSchemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return "header does not match schema: " + strings.Join(msgs, "; ")
}

func (i *Issuer) sign(key *keys.KeyPair, res *Result) error {
	r, s, err := i.curve.Sign(key.D, res.Digest)
	if err != nil {
		return err
	}
	s = curves.NormalizeLowS(s, i.curve.Params().N)

	x, y := key.PublicPoint()
	if !i.curve.Verify(x, y, res.Digest, r, s) {
		return errors.New("signature verification failed")
	}

	res.R, res.S = r, s
	res.SignatureSegment = EncodeSignature(r, s)
	return nil
}
