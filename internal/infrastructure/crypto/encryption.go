package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks values produced by Seal.
const sealedPrefix = "enc:v1:"

type EncryptionService interface {
	Encrypt(plaintext string) (ciphertext, iv string, err error)
	Decrypt(ciphertext, iv string) (plaintext string, err error)
}

// AESEncryptionService encrypts with AES-256-GCM and a random nonce per value
type AESEncryptionService struct {
	gcm cipher.AEAD
}

func NewAESEncryptionService(hexKey string) (*AESEncryptionService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESEncryptionService{gcm: gcm}, nil
}

func (s *AESEncryptionService) Encrypt(plaintext string) (string, string, error) {
	iv := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}

	ciphertext := s.gcm.Seal(nil, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(iv),
		nil
}

func (s *AESEncryptionService) Decrypt(ciphertextB64, ivB64 string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", err
	}

	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", err
	}
	if len(iv) != s.gcm.NonceSize() {
		return "", errors.New("invalid iv length")
	}

	plaintext, err := s.gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Seal encrypts plaintext into a single self-describing string
func Seal(enc EncryptionService, plaintext string) (string, error) {
	ciphertext, iv, err := enc.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return sealedPrefix + iv + ":" + ciphertext, nil
}

// Open reverses Seal
func Open(enc EncryptionService, sealed string) (string, error) {
	rest, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", errors.New("value is not sealed")
	}
	iv, ciphertext, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("malformed sealed value")
	}
	return enc.Decrypt(ciphertext, iv)
}
