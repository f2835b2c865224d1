// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package issuerkey

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
	"github.com/bureau-foundation/sdcwt/lib/secret"
)

const (
	PrivateKeyFile = "issuer-key"
	SealedKeyFile  = "issuer-key.age"
	PublicKeyFile  = "issuer-key.pub"
)

var (
	// ErrPassphraseRequired is returned when the private key is sealed
	// and no passphrase was given.
	ErrPassphraseRequired = errors.New("issuerkey: private key is sealed, a passphrase is required")

	// ErrKeyMismatch is returned when the stored public key does not
	// belong to the stored private key.
	ErrKeyMismatch = errors.New("issuerkey: public key does not match private key")
)

// scryptWorkFactor is the log2 scrypt cost used when sealing.
var scryptWorkFactor = 18

// Keypair is a loaded issuer keypair.
type Keypair struct {
	Public  ed25519.PublicKey
	private *secret.Buffer
	key     ed25519.PrivateKey
}

// Generate creates a new issuer keypair.
func Generate() (*Keypair, error) {
	public, private, err := sdcwt.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	return newKeypair(public, private)
}

func newKeypair(public ed25519.PublicKey, private []byte) (*Keypair, error) {
	buffer, err := secret.NewFromBytes(private)
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	key, err := buffer.Ed25519PrivateKey()
	if err != nil {
		buffer.Close()
		return nil, err
	}
	return &Keypair{Public: public, private: buffer, key: key}, nil
}

// PrivateKey returns the private key. The slice points into protected
// memory and is invalid after Close.
func (k *Keypair) PrivateKey() ed25519.PrivateKey {
	return k.key
}

// Close zeros and releases the private key.
func (k *Keypair) Close() error {
	k.key = nil
	return k.private.Close()
}

// Save writes the keypair to dir. With a non-nil passphrase the
// private key is sealed; any previously stored key in the other form is
// removed so that the directory holds exactly one private key.
func Save(dir string, keypair *Keypair, passphrase *secret.Buffer) error {
	privatePath := filepath.Join(dir, PrivateKeyFile)
	sealedPath := filepath.Join(dir, SealedKeyFile)

	if passphrase == nil {
		if err := os.WriteFile(privatePath, keypair.private.Bytes(), 0600); err != nil {
			return fmt.Errorf("writing private key: %w", err)
		}
		if err := removeIfExists(sealedPath); err != nil {
			return err
		}
	} else {
		sealed, err := seal(keypair.private.Bytes(), passphrase)
		if err != nil {
			return err
		}
		if err := os.WriteFile(sealedPath, sealed, 0600); err != nil {
			return fmt.Errorf("writing sealed private key: %w", err)
		}
		if err := removeIfExists(privatePath); err != nil {
			return err
		}
	}

	publicPath := filepath.Join(dir, PublicKeyFile)
	if err := os.WriteFile(publicPath, keypair.Public, 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// IsSealed reports whether dir holds a sealed private key.
func IsSealed(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, SealedKeyFile))
	return err == nil
}

// Load loads the keypair from dir. A sealed private key needs
// passphrase; an unsealed one ignores it.
func Load(dir string, passphrase *secret.Buffer) (*Keypair, error) {
	var private []byte
	if IsSealed(dir) {
		if passphrase == nil {
			return nil, ErrPassphraseRequired
		}
		data, err := os.ReadFile(filepath.Join(dir, SealedKeyFile))
		if err != nil {
			return nil, fmt.Errorf("reading sealed private key: %w", err)
		}
		private, err = unseal(data, passphrase)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		private, err = os.ReadFile(filepath.Join(dir, PrivateKeyFile))
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
	}
	if len(private) != ed25519.PrivateKeySize {
		secret.Zero(private)
		return nil, fmt.Errorf("private key has %d bytes, want %d", len(private), ed25519.PrivateKeySize)
	}

	public, err := os.ReadFile(filepath.Join(dir, PublicKeyFile))
	if err != nil {
		secret.Zero(private)
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	if len(public) != ed25519.PublicKeySize {
		secret.Zero(private)
		return nil, fmt.Errorf("public key has %d bytes, want %d", len(public), ed25519.PublicKeySize)
	}
	if !ed25519.PublicKey(public).Equal(ed25519.PrivateKey(private).Public()) {
		secret.Zero(private)
		return nil, ErrKeyMismatch
	}

	return newKeypair(public, private)
}

// LoadOrGenerate loads the keypair from dir, or generates and saves a
// new one if no private key is stored there. It reports whether the
// keypair was generated.
func LoadOrGenerate(dir string, passphrase *secret.Buffer) (*Keypair, bool, error) {
	keypair, err := Load(dir, passphrase)
	if err == nil {
		return keypair, false, nil
	}

	// A stored key that fails to load is corrupt or locked, not absent.
	for _, name := range []string{PrivateKeyFile, SealedKeyFile} {
		if _, statErr := os.Stat(filepath.Join(dir, name)); statErr == nil {
			return nil, false, err
		}
	}

	keypair, err = Generate()
	if err != nil {
		return nil, false, err
	}
	if err := Save(dir, keypair, passphrase); err != nil {
		keypair.Close()
		return nil, false, err
	}
	return keypair, true, nil
}

func seal(plaintext []byte, passphrase *secret.Buffer) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	var sealed bytes.Buffer
	armored := armor.NewWriter(&sealed)
	writer, err := age.Encrypt(armored, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing private key to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return sealed.Bytes(), nil
}

func unseal(sealed []byte, passphrase *secret.Buffer) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	reader, err := age.Decrypt(armor.NewReader(bytes.NewReader(sealed)), identity)
	if err != nil {
		return nil, fmt.Errorf("unsealing private key: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading unsealed private key: %w", err)
	}
	return plaintext, nil
}
