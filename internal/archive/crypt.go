package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Transcript encryption format:
//
//	magic(8) + salt(16) + nonce(12) + sealed(ciphertext + 16-byte auth tag)
//
// AES-256-GCM with a PBKDF2-SHA256 key (100k iterations).
const (
	cryptMagic  = "RCGCM001"
	saltLen     = 16
	nonceLen    = 12
	pbkdf2Iters = 100000
	keyLen      = 32
)

// Encrypt seals data under a password-derived key.
func Encrypt(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLen)
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(cryptMagic)+saltLen+nonceLen+len(data)+gcm.Overhead())
	out = append(out, cryptMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, data, nil)
	return out, nil
}

// Decrypt reverses Encrypt. A wrong password surfaces as an authentication
// failure from GCM.
func Decrypt(data []byte, password string) ([]byte, error) {
	header := len(cryptMagic) + saltLen + nonceLen
	if len(data) < header+16 {
		return nil, fmt.Errorf("encrypted transcript too short: %d bytes", len(data))
	}
	if string(data[:len(cryptMagic)]) != cryptMagic {
		return nil, fmt.Errorf("unknown encryption format")
	}

	salt := data[len(cryptMagic) : len(cryptMagic)+saltLen]
	nonce := data[len(cryptMagic)+saltLen : header]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, data[header:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt transcript: %w", err)
	}
	return plain, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iters, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
