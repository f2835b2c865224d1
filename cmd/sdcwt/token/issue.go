// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/sha3"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/binhash"
	"github.com/bureau-foundation/sdcwt/lib/claimset"
	"github.com/bureau-foundation/sdcwt/lib/config"
	"github.com/bureau-foundation/sdcwt/lib/issuerkey"
	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
	"github.com/bureau-foundation/sdcwt/lib/secret"
)

// issueRequest is everything issueToken needs, resolved from the
// configuration and flags.
type issueRequest struct {
	TemplatePath   string
	KeysDir        string
	PassphraseFile string
	Claims         claimset.Options
	Issuer         sdcwt.IssuerOptions
	Format         string
	CanonicalOnly  bool
}

func issueCommand(cfg *config.Config) *cli.Command {
	var (
		audience       string
		lifetime       string
		issuedAt       int64
		keysDir        string
		passphraseFile string
		saltSeed       string
		format         string
	)

	return &cli.Command{
		Name:    "issue",
		Summary: "Build an unsigned token from a claims template",
		Description: `Read a YAML or JSONC claims template and write an unsigned token.

The template lists visible claims and the claims and array elements to
disclose selectively. Each disclosure gets a fresh 16-byte salt; its
digest under issuer.sd_alg goes into the payload's redacted_keys and
the disclosure itself into the unprotected header. Files ending in
.json or .jsonc are read as JSONC, anything else as YAML.

The issuer key is loaded from paths.keys and generated on first use.
With a passphrase file, a newly generated key is stored sealed with
age; a sealed key cannot be loaded without one.

Signing is not implemented: the signature is left empty.

With --salt-seed, salts are derived from the seed with SHAKE256, so the
same template always gives the same token. Seeded salts are refused in
the production environment.`,
		Usage: "sdcwt issue [flags] <template>",
		Examples: []cli.Example{
			{
				Description: "Issue a token valid for one hour",
				Command:     "sdcwt issue --lifetime 1h claims.yaml > token.cbor",
			},
			{
				Description: "Reproducible token for a test vector, as hex",
				Command:     "sdcwt issue --salt-seed vector-1 --iat 1700000000 --format hex claims.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("issue", pflag.ContinueOnError)
			flagSet.StringVar(&audience, "aud", cfg.Issuer.Audience, "audience for templates that leave aud out")
			flagSet.StringVar(&lifetime, "lifetime", cfg.Issuer.Lifetime, "set exp to iat plus this duration when the template has no exp")
			flagSet.Int64Var(&issuedAt, "iat", 0, "issued-at time in Unix seconds (default now)")
			flagSet.StringVar(&keysDir, "keys", cfg.Paths.Keys, "issuer key directory")
			flagSet.StringVar(&passphraseFile, "passphrase-file", cfg.Issuer.PassphraseFile, "file holding the key passphrase (- for stdin)")
			flagSet.StringVar(&saltSeed, "salt-seed", "", "derive salts from this seed instead of crypto/rand")
			flagSet.StringVarP(&format, "format", "f", cfg.Output.Format, "output format: binary or hex")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("issue takes exactly one template file, got %d arguments", len(args))
			}

			request := issueRequest{
				TemplatePath:   args[0],
				KeysDir:        keysDir,
				PassphraseFile: passphraseFile,
				Claims:         claimset.Options{Audience: audience},
				Format:         format,
				CanonicalOnly:  cfg.Output.CanonicalOnly,
			}
			if issuedAt != 0 {
				request.Claims.Now = time.Unix(issuedAt, 0)
			}
			if lifetime != "" {
				duration, err := time.ParseDuration(lifetime)
				if err != nil || duration <= 0 {
					return cli.Validation("--lifetime must be a positive duration, got %q", lifetime)
				}
				request.Claims.Lifetime = duration
			}

			sdAlg, err := cfg.SdAlgorithm()
			if err != nil {
				return cli.Validation("%w", err)
			}
			saltSource, seed := cfg.Issuer.SaltSource, cfg.Issuer.SaltSeed
			if saltSeed != "" {
				saltSource, seed = config.SaltSeeded, saltSeed
			}
			if saltSource == config.SaltSeeded && cfg.Environment == config.Production {
				return cli.Validation("seeded salts are not allowed in the production environment")
			}
			random, err := saltReader(saltSource, seed)
			if err != nil {
				return err
			}
			request.Issuer = sdcwt.IssuerOptions{
				Alg:    sdcwt.IntFromInt64(cfg.Issuer.Alg),
				Typ:    cfg.Issuer.Typ,
				SdAlg:  sdcwt.IntFromInt64(int64(sdAlg)),
				Random: random,
			}

			return issueToken(ctx, request, stdout, logger)
		},
	}
}

// saltSeedDomain prefixes the seed so seeded salt streams are distinct
// from any other SHAKE256 output over the same text.
const saltSeedDomain = "sdcwt.salt.v1\x00"

// saltReader returns the source of disclosure salts.
func saltReader(source, seed string) (io.Reader, error) {
	switch source {
	case config.SaltCrypto:
		return rand.Reader, nil
	case config.SaltSeeded:
		if seed == "" {
			return nil, cli.Validation("seeded salts need a seed")
		}
		shake := sha3.NewShake256()
		shake.Write([]byte(saltSeedDomain))
		shake.Write([]byte(seed))
		return shake, nil
	default:
		return nil, cli.Validation("unknown salt source %q", source)
	}
}

// issueToken loads the template and issuer key, builds the token, and
// writes it to w.
func issueToken(_ context.Context, request issueRequest, w io.Writer, logger *slog.Logger) error {
	template, err := claimset.LoadFile(request.TemplatePath, request.Claims)
	if errors.Is(err, os.ErrNotExist) {
		return cli.NotFound("template %s does not exist", request.TemplatePath)
	}
	if err != nil {
		return cli.Validation("%w", err)
	}

	if err := os.MkdirAll(request.KeysDir, 0700); err != nil {
		return cli.Internal("create key directory: %w", err)
	}

	var passphrase *secret.Buffer
	if request.PassphraseFile != "" {
		passphrase, err = secret.ReadFromPath(request.PassphraseFile)
		if err != nil {
			return cli.Validation("read passphrase: %w", err)
		}
		defer passphrase.Close()
	}

	keypair, generated, err := issuerkey.LoadOrGenerate(request.KeysDir, passphrase)
	if errors.Is(err, issuerkey.ErrPassphraseRequired) {
		return cli.Validation("issuer key in %s is sealed: pass --passphrase-file or set issuer.passphrase_file", request.KeysDir)
	}
	if err != nil {
		return cli.Internal("issuer key: %w", err)
	}
	defer keypair.Close()

	keyID := hex.EncodeToString(keypair.Public[:8])
	if generated {
		logger.Info("generated issuer key",
			"dir", request.KeysDir,
			"public_key", keyID,
			"sealed", passphrase != nil,
		)
	}

	issuer, err := sdcwt.NewIssuer(keypair.PrivateKey(), request.Issuer)
	if err != nil {
		return cli.Validation("%w", err)
	}
	token, err := template.Build(issuer)
	if err != nil {
		return cli.Validation("build token: %w", err)
	}

	if err := issuer.Sign(token); errors.Is(err, sdcwt.ErrSigningNotImplemented) {
		logger.Warn("token left unsigned", "reason", err)
	} else if err != nil {
		return cli.Internal("sign token: %w", err)
	}

	data := token.Marshal()
	if request.CanonicalOnly {
		isCanonical, err := sdcwt.IsCanonical(data)
		if err != nil || !isCanonical {
			return cli.Internal("issued token is not in shortest form")
		}
	}

	logger.Info("issued token",
		"fingerprint", binhash.FingerprintOf(data).Short(),
		"public_key", keyID,
		"disclosures", len(template.Disclosures),
		"sd_alg", issuer.Options().SdAlg.String(),
	)
	return writeToken(w, data, request.Format)
}

