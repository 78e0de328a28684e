//go:build js && wasm

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"syscall/js"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/algebraic"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/keys"
	"github.com/smallyu/go-jpt-issuer/internal/protocol/issue"
	"github.com/smallyu/go-jpt-issuer/internal/protocol/pseudonym"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

func main() {
	c := make(chan struct{}, 0)

	fmt.Println("Go JPT issuer WASM Initialized")

	// Expose Go functions to JS
	js.Global().Set("GoJPT", map[string]interface{}{
		"GenKey":   js.FuncOf(GenKey),
		"GenUsk":   js.FuncOf(GenUsk),
		"GenUpk":   js.FuncOf(GenUpk),
		"IssueJwp": js.FuncOf(IssueJwp),
	})

	<-c
}

// GenKey generates a P-256 issuer key.
// Returns:
// JSON string { privateKey: "0x…", jwk: {…} } or an "error: …" string
func GenKey(this js.Value, args []js.Value) interface{} {
	kp, err := keys.Generate(curves.NewP256(nil))
	if err != nil {
		return fmt.Sprintf("error: generate key: %v", err)
	}
	jwk, err := kp.JWK("")
	if err != nil {
		return fmt.Sprintf("error: jwk: %v", err)
	}
	return marshal(map[string]interface{}{
		"privateKey": "0x" + hex.EncodeToString(kp.D),
		"jwk":        jwk,
	})
}

// GenUsk returns a random user secret as 0x-prefixed hex.
func GenUsk(this js.Value, args []js.Value) interface{} {
	usk, err := pseudonym.NewUserSecret(nil)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return fmt.Sprintf("0x%064x", usk)
}

// GenUpk derives the user pseudonym.
// Arguments:
// 0: JSON string { userSecret, devicePublicKey, context }
// Returns:
// JSON string { userPk, contextField } or an "error: …" string
func GenUpk(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (jsonParams)"
	}

	type ParamsInput struct {
		UserSecret      string `json:"userSecret"`
		DevicePublicKey string `json:"devicePublicKey"`
		Context         string `json:"context"`
	}

	var input ParamsInput
	if err := json.Unmarshal([]byte(args[0].String()), &input); err != nil {
		return fmt.Sprintf("error: invalid json: %v", err)
	}

	usk, ok := new(big.Int).SetString(trimHex(input.UserSecret), 16)
	if !ok {
		return "error: user secret must be hex"
	}
	x, y, err := keys.ParsePublicKey(curves.NewP256(nil), input.DevicePublicKey)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	res, err := pseudonym.Derive(algebraic.NewPoseidon(), usk, x, y, input.Context)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	upk, err := pseudonym.Encode(res.Pseudonym)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	// big.Int values travel as decimal strings; JS numbers would truncate them.
	return marshal(map[string]interface{}{
		"userPk":       upk,
		"contextField": res.ContextField.String(),
	})
}

// IssueJwp issues a token.
// Arguments:
// 0: JSON string { issuerKey, header, userPk, pairs: [[path, value], …] }
// Returns:
// Token string or an "error: …" string
func IssueJwp(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "error: expected 1 argument (jsonParams)"
	}

	type ParamsInput struct {
		IssuerKey string               `json:"issuerKey"`
		Header    string               `json:"header"`
		UserPk    string               `json:"userPk"`
		Pairs     [][2]json.RawMessage `json:"pairs"`
	}

	var input ParamsInput
	if err := json.Unmarshal([]byte(args[0].String()), &input); err != nil {
		return fmt.Sprintf("error: invalid json: %v", err)
	}

	key, err := keys.ParsePrivateKey(input.IssuerKey)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}

	claims := make([]jpt.Claim, 0, len(input.Pairs))
	for _, pair := range input.Pairs {
		c, err := decodePair(pair)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		claims = append(claims, c)
	}

	token, err := issue.Issue(&jpt.Parameters{
		IssuerKey: key,
		Header:    input.Header,
		Pseudonym: input.UserPk,
		Claims:    claims,
	})
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return token
}

// Helpers

func decodePair(pair [2]json.RawMessage) (jpt.Claim, error) {
	var c jpt.Claim
	if err := json.Unmarshal(pair[0], &c.Path); err != nil {
		return c, fmt.Errorf("claim path: %w", err)
	}

	var s string
	if err := json.Unmarshal(pair[1], &s); err == nil {
		c.Value = jpt.StringValue(s)
		return c, nil
	}
	n, ok := new(big.Int).SetString(string(pair[1]), 10)
	if !ok {
		return c, fmt.Errorf("claim %q: value must be a string or an integer", c.Path)
	}
	c.Value = jpt.NewBigNumber(n)
	return c, nil
}

func trimHex(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func marshal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: marshal result failed: %v", err)
	}
	return string(b)
}
