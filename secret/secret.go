package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Decrypter turns stored secrets (webhook headers, credentials, SMTP
// passwords) back into plain text.
type Decrypter interface {
	Decrypt(value string) (string, error)
}

type aesDecrypter struct {
	gcm cipher.AEAD
}

// NewDecrypter builds an AES-GCM decrypter from a base64 encoded 256 bit key.
// An empty key means secrets are stored in plain text.
func NewDecrypter(base64Key string) (Decrypter, error) {
	if base64Key == "" {
		return plainText{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &aesDecrypter{gcm: gcm}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (d *aesDecrypter) Decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}
	size := d.gcm.NonceSize()
	if len(data) < size {
		return "", errors.New("secret is too short")
	}
	plain, err := d.gcm.Open(nil, data[:size], data[size:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(plain), nil
}

type plainText struct{}

func (plainText) Decrypt(value string) (string, error) {
	return value, nil
}

// Encrypt is the inverse of Decrypt, used by tooling that stores secrets.
func Encrypt(base64Key string, plain string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return "", fmt.Errorf("decode encryption key: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
