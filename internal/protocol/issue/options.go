package issue

import (
	"github.com/xeipuuv/gojsonschema"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/algebraic"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

// DefaultHeaderSchema requires a JSON object with a non-empty string "alg".
const DefaultHeaderSchema = `{
  "type": "object",
  "required": ["alg"],
  "properties": {
    "alg": {"type": "string", "minLength": 1},
    "typ": {"type": "string"},
    "kid": {"type": "string"},
    "iss": {"type": "string"}
  }
}`

// Option configures an Issuer.
type Option func(*Issuer)

// WithHasher substitutes the two-input algebraic hash. A nil hasher keeps
// the default.
func WithHasher(h jpt.Hasher) Option {
	return func(i *Issuer) {
		if h != nil {
			i.hasher = h
		}
	}
}

// WithCurve selects the signing curve. A nil curve keeps the default.
func WithCurve(c curves.Curve) Option {
	return func(i *Issuer) {
		if c != nil {
			i.curve = c
		}
	}
}

// WithHeaderSchema validates headers against a JSON schema instead of
// DefaultHeaderSchema. An empty schema disables schema validation.
func WithHeaderSchema(schema string) Option {
	return func(i *Issuer) {
		if schema == "" {
			i.schema = nil
			return
		}
		i.schema = gojsonschema.NewStringLoader(schema)
	}
}

func defaultIssuer() *Issuer {
	return &Issuer{
		hasher: algebraic.NewPoseidon(),
		curve:  curves.NewP256(nil),
		schema: gojsonschema.NewStringLoader(DefaultHeaderSchema),
	}
}
