// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sdcwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"slices"

	"github.com/bureau-foundation/sdcwt/lib/binhash"
)

// AlgEdDSA is the COSE identifier of EdDSA, the default signature
// algorithm.
const AlgEdDSA = -8

// DefaultTyp is the protected typ of tokens built by an Issuer unless
// configured otherwise.
const DefaultTyp = "application/sd-cwt"

// IssuerOptions configures the headers an Issuer writes. Zero fields
// take defaults: Alg EdDSA (-8), Typ DefaultTyp, SdAlg SHA-256 (-16),
// Random crypto/rand.
type IssuerOptions struct {
	Alg    Int
	Typ    string
	SdAlg  Int
	Random io.Reader
}

// Issuer assembles tokens for one Ed25519 issuer key.
type Issuer struct {
	key     ed25519.PrivateKey
	options IssuerOptions
}

// GenerateKeypair creates a new Ed25519 issuer keypair.
func GenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating Ed25519 keypair: %w", err)
	}
	return public, private, nil
}

// NewIssuer returns an Issuer for key.
func NewIssuer(key ed25519.PrivateKey, options IssuerOptions) (*Issuer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: private key has %d bytes, want %d", ErrInvalidIssuerKey, len(key), ed25519.PrivateKeySize)
	}
	zero := Int{}
	if options.Alg.Equal(zero) {
		options.Alg = IntFromInt64(AlgEdDSA)
	}
	if options.Typ == "" {
		options.Typ = DefaultTyp
	}
	if options.SdAlg.Equal(zero) {
		options.SdAlg = IntFromInt64(int64(binhash.SHA256))
	}
	if options.Random == nil {
		options.Random = rand.Reader
	}
	id, err := options.SdAlg.Int64()
	if err == nil {
		err = binhash.Algorithm(id).Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedHashAlg, err)
	}
	return &Issuer{key: key, options: options}, nil
}

// PublicKey returns the issuer's public key.
func (i *Issuer) PublicKey() ed25519.PublicKey {
	return i.key.Public().(ed25519.PublicKey)
}

// Options returns the effective options, defaults filled in.
func (i *Issuer) Options() IssuerOptions {
	return i.options
}

// NewSalt reads a fresh 16-byte salt from random.
func NewSalt(random io.Reader) ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, fmt.Errorf("sdcwt: reading salt: %w", err)
	}
	return salt, nil
}

// DiscloseClaim returns a freshly salted disclosure of the claim at
// index.
func (i *Issuer) DiscloseClaim(index IntOrText, value Value) (Salted, error) {
	salt, err := NewSalt(i.options.Random)
	if err != nil {
		return Salted{}, err
	}
	item, err := NewSaltedClaimItem(salt, index, value)
	if err != nil {
		return Salted{}, err
	}
	return NewSaltedClaim(item), nil
}

// DiscloseElement returns a freshly salted disclosure of an array
// element.
func (i *Issuer) DiscloseElement(value Value) (Salted, error) {
	salt, err := NewSalt(i.options.Random)
	if err != nil {
		return Salted{}, err
	}
	item, err := NewSaltedElementItem(salt, value)
	if err != nil {
		return Salted{}, err
	}
	return NewSaltedElement(item), nil
}

// Build assembles an unsigned token. The digests of disclosures are
// added to the payload's redacted keys under the configured hash
// algorithm, and the disclosures themselves go into the unprotected
// header. payload is not modified.
func (i *Issuer) Build(payload SdPayload, disclosures []Salted) (*SdCwt, error) {
	claims := payload
	claims.RedactedKeys = slices.Clone(payload.RedactedKeys)
	claims.redactedKeyEncodings = slices.Clone(payload.redactedKeyEncodings)
	if len(disclosures) > 0 {
		if err := claims.Redact(i.options.SdAlg, disclosures...); err != nil {
			return nil, err
		}
	}
	protected := NewSdProtected(i.options.Alg, i.options.Typ)
	return New(protected, NewUnprotected(disclosures...), claims), nil
}

// Sign computes the token signature.
//
// TODO: build the COSE Sig_structure over ProtectedBytes and
// PayloadBytes and sign it with the issuer key.
func (i *Issuer) Sign(token *SdCwt) error {
	return ErrSigningNotImplemented
}
