// Package cryptox implements the password-based cipher behind the
// crypto endpoint: argon2id key derivation plus AES-256-GCM, with a
// fresh salt and nonce per message. The envelope is
// base64(salt || nonce || ciphertext).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dkotlyar/snipstash/internal/common"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
}

// Encrypt seals plaintext under the password and returns the envelope.
func Encrypt(plaintext, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	envelope := make([]byte, 0, saltSize+len(nonce)+len(sealed))
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, sealed...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt opens an envelope produced by Encrypt. A wrong password, a
// truncated envelope, and tampered ciphertext all come back as
// ErrCrypto; callers cannot distinguish them, which is the point of an
// authenticated cipher.
func Decrypt(envelope, password string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: malformed envelope", common.ErrCrypto)
	}
	if len(raw) < saltSize {
		return "", fmt.Errorf("%w: envelope too short", common.ErrCrypto)
	}

	salt, rest := raw[:saltSize], raw[saltSize:]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: envelope too short", common.ErrCrypto)
	}

	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed", common.ErrCrypto)
	}
	return string(plain), nil
}
