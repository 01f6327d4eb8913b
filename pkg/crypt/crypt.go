// Package crypt provides AES-GCM authenticated encryption for values the
// client keeps at rest, chiefly the persisted session with its bearer token.
//
// All ciphertext is base64url-encoded and includes the random nonce prefix,
// so a single string can be stored in any state driver.
//
// Usage:
//
//	box, err := crypt.New(config.AppKey())
//	enc, err := box.SealJSON(session)
//	err = box.OpenJSON(enc, &session)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrDecrypt is returned when decryption or authentication fails.
	ErrDecrypt = errors.New("crypt: decryption failed")
	// ErrNoKey is returned by New for an empty secret.
	ErrNoKey = errors.New("crypt: APP_KEY not configured")
)

const keyInfo = "recordshop/session/v1"

// Box seals and opens values with one derived key.
type Box struct {
	aead cipher.AEAD
}

// New derives a 32-byte AES-256 key from secret with HKDF-SHA256.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrNoKey
	}
	k := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), k); err != nil {
		return nil, fmt.Errorf("crypt: derive key: %w", err)
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Box{aead: gcm}, nil
}

// Seal encrypts data and returns base64url(nonce || ciphertext || tag).
func (b *Box) Seal(data []byte) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b.aead.Seal(nonce, nonce, data, nil)), nil
}

// Open decrypts a string produced by Seal.
func (b *Box) Open(encoded string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecrypt
	}
	n := b.aead.NonceSize()
	if len(data) < n {
		return nil, ErrDecrypt
	}
	plain, err := b.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// SealJSON marshals v to JSON then encrypts it.
func (b *Box) SealJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: marshal: %w", err)
	}
	return b.Seal(raw)
}

// OpenJSON decrypts encoded and unmarshals the result into dest.
func (b *Box) OpenJSON(encoded string, dest interface{}) error {
	raw, err := b.Open(encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("crypt: unmarshal: %w", err)
	}
	return nil
}
