package crypto

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// Encryptor wraps an age X25519 identity used to encrypt certificate
// files at rest before they are written to object storage.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient age.Recipient
}

// NewEncryptor creates an encryptor from an age identity string.
// If no key is provided, a fresh one is generated; data encrypted with
// a generated key is unreadable after a restart.
func NewEncryptor(identityKey string) (*Encryptor, error) {
	var identity *age.X25519Identity
	var err error

	if identityKey == "" {
		identity, err = age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating identity: %w", err)
		}
	} else {
		identity, err = age.ParseX25519Identity(identityKey)
		if err != nil {
			return nil, fmt.Errorf("parsing identity: %w", err)
		}
	}

	return &Encryptor{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// GenerateKey generates a new age identity key pair.
func GenerateKey() (identityKey string, publicKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", err
	}
	return identity.String(), identity.Recipient().String(), nil
}

// Encrypt encrypts plaintext bytes to the age binary format.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypt writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing encrypt writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt decrypts age-encrypted bytes.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return plaintext, nil
}
