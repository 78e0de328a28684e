package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/smallyu/go-jpt-issuer/internal/crypto/algebraic"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/curves"
	"github.com/smallyu/go-jpt-issuer/internal/crypto/keys"
	"github.com/smallyu/go-jpt-issuer/internal/protocol/issue"
	"github.com/smallyu/go-jpt-issuer/internal/protocol/pseudonym"
	"github.com/smallyu/go-jpt-issuer/pkg/jpt"
)

const (
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "JPT_LOG_LEVEL"
	curveFlagName     = "curve"
	curveEnvKey       = "JPT_CURVE"
	issuerKeyFlagName = "key"
	issuerKeyEnvKey   = "JPT_ISSUER_KEY"

	kidFlagName        = "kid"
	headerFlagName     = "header"
	pseudonymFlagName  = "pseudonym"
	claimFlagName      = "claim"
	iatFlagName        = "iat"
	expFlagName        = "exp"
	userSecretFlagName = "user-secret"
	deviceKeyFlagName  = "device-key"
	contextFlagName    = "context"
	defaultAlg         = "ZK-ES256"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jptctl",
		Short:         "Issue JSON Proof Tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(logLevelFlagName, "", "Log level (trace, debug, info, warn, error). Alternatively, this can be set with the "+logLevelEnvKey+" environment variable.")
	rootCmd.PersistentFlags().String(curveFlagName, "", "Issuer curve: P-256 (default) or secp256k1. Alternatively, this can be set with the "+curveEnvKey+" environment variable.")

	rootCmd.AddCommand(newKeygenCommand(), newUskCommand(), newPseudonymCommand(), newIssueCommand())
	return rootCmd
}

func newLogger(cmd *cobra.Command) (hclog.Logger, error) {
	level, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}
	lvl := hclog.Info
	if level != "" {
		lvl = hclog.LevelFromString(level)
		if lvl == hclog.NoLevel {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "jptctl",
		Level:  lvl,
		Output: cmd.ErrOrStderr(),
	}), nil
}

func getCurve(cmd *cobra.Command) (curves.Curve, error) {
	name, err := getUserSetVar(cmd, curveFlagName, curveEnvKey, true)
	if err != nil {
		return nil, err
	}
	return curves.Get(name)
}

func newKeygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an issuer key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			curve, err := getCurve(cmd)
			if err != nil {
				return err
			}
			kid, err := cmd.Flags().GetString(kidFlagName)
			if err != nil {
				return err
			}

			kp, err := keys.Generate(curve)
			if err != nil {
				return err
			}
			logger.Debug("generated issuer key", "curve", curve.Name())

			out := map[string]interface{}{
				"curve":      curve.Name(),
				"privateKey": "0x" + hex.EncodeToString(kp.D),
				"x":          "0x" + hex.EncodeToString(kp.X),
				"y":          "0x" + hex.EncodeToString(kp.Y),
			}
			if curve.Name() == curves.NameP256 {
				jwk, err := kp.PublicJWK(kid)
				if err != nil {
					return err
				}
				out["jwk"] = jwk
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().String(kidFlagName, "", "Key ID placed in the exported JWK")
	return cmd
}

func newUskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usk",
		Short: "Generate a random user secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			usk, err := pseudonym.NewUserSecret(nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%064x\n", usk)
			return nil
		},
	}
}

func newPseudonymCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pseudonym",
		Short: "Derive a user pseudonym from a user secret, device key and context",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			uskText, _ := cmd.Flags().GetString(userSecretFlagName)
			deviceText, _ := cmd.Flags().GetString(deviceKeyFlagName)
			context, _ := cmd.Flags().GetString(contextFlagName)

			usk, ok := new(big.Int).SetString(strings.TrimPrefix(uskText, "0x"), 16)
			if !ok {
				return fmt.Errorf("%s must be hex: %w", userSecretFlagName, jpt.ErrMalformedInput)
			}
			x, y, err := keys.ParsePublicKey(curves.NewP256(nil), deviceText)
			if err != nil {
				return err
			}

			res, err := pseudonym.Derive(algebraic.NewPoseidon(), usk, x, y, context)
			if err != nil {
				return err
			}
			jwk, err := res.JWK()
			if err != nil {
				return err
			}
			logger.Debug("derived pseudonym", "context", context)

			fmt.Fprintln(cmd.OutOrStdout(), string(jwk))
			return nil
		},
	}
	cmd.Flags().String(userSecretFlagName, "", "User secret (hex, BN254 scalar field element)")
	cmd.Flags().String(deviceKeyFlagName, "", "Device public key (uncompressed P-256 point, hex)")
	cmd.Flags().String(contextFlagName, "", "Context string, usually the issuer URL")
	_ = cmd.MarkFlagRequired(userSecretFlagName)
	_ = cmd.MarkFlagRequired(deviceKeyFlagName)
	return cmd
}

func newIssueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token",
		Long:  `Issue a token over ordered claims given as --claim /path=value`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			curve, err := getCurve(cmd)
			if err != nil {
				return err
			}

			keyText, err := getUserSetVar(cmd, issuerKeyFlagName, issuerKeyEnvKey, false)
			if err != nil {
				return err
			}
			key, err := keys.ParsePrivateKey(keyText)
			if err != nil {
				return err
			}

			params := &jpt.Parameters{IssuerKey: key}
			params.Pseudonym, _ = cmd.Flags().GetString(pseudonymFlagName)

			params.Header, _ = cmd.Flags().GetString(headerFlagName)
			if params.Header == "" {
				kid, _ := cmd.Flags().GetString(kidFlagName)
				params.Header, err = defaultHeader(kid)
				if err != nil {
					return err
				}
			}

			claimArgs, _ := cmd.Flags().GetStringArray(claimFlagName)
			params.Claims, err = parseClaims(claimArgs)
			if err != nil {
				return err
			}

			if params.IssuedAt, err = optionalInt(cmd, iatFlagName); err != nil {
				return err
			}
			if params.Expiry, err = optionalInt(cmd, expFlagName); err != nil {
				return err
			}

			res, err := issue.New(issue.WithCurve(curve)).Issue(params)
			if err != nil {
				return err
			}
			logger.Info("issued token", "curve", curve.Name(), "claims", res.Tree.ClaimCount(), "leaves", res.Tree.LeafCount())

			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		},
	}
	cmd.Flags().String(issuerKeyFlagName, "", "Issuer private key (hex or byte list). Alternatively, this can be set with the "+issuerKeyEnvKey+" environment variable.")
	cmd.Flags().String(headerFlagName, "", "Header JSON. Defaults to a ZK-ES256 JPT header")
	cmd.Flags().String(kidFlagName, "", "Key ID for the default header. A random UUID is used when empty")
	cmd.Flags().String(pseudonymFlagName, "", "Recipient pseudonym (base64url)")
	cmd.Flags().StringArray(claimFlagName, nil, "Claim as /path=value; digit-only values are committed as numbers")
	cmd.Flags().String(iatFlagName, "", "Issued-at time (unix seconds)")
	cmd.Flags().String(expFlagName, "", "Expiry time (unix seconds)")
	return cmd
}

func defaultHeader(kid string) (string, error) {
	if kid == "" {
		kid = uuid.New().String()
	}
	b, err := json.Marshal(struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
		Kid string `json:"kid"`
	}{Alg: defaultAlg, Typ: "JPT", Kid: kid})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseClaims(args []string) ([]jpt.Claim, error) {
	claims := make([]jpt.Claim, 0, len(args))
	for _, arg := range args {
		idx := strings.Index(arg, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("claim %q must be /path=value: %w", arg, jpt.ErrMalformedInput)
		}
		claims = append(claims, jpt.Claim{
			Path:  arg[:idx],
			Value: jpt.ParseClaimValue(arg[idx+1:]),
		})
	}
	return claims, nil
}

func optionalInt(cmd *cobra.Command, flagName string) (*int64, error) {
	if !cmd.Flags().Changed(flagName) {
		return nil, nil
	}
	text, err := cmd.Flags().GetString(flagName)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", flagName, err, jpt.ErrMalformedInput)
	}
	return &v, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", fmt.Errorf("neither %s (command line flag) nor %s (environment variable) have been set", flagName, envKey)
}
