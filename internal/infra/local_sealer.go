package infra

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrSealedDataInvalid は封印データの形式不正または改ざんを表す。
var ErrSealedDataInvalid = errors.New("sealed data is invalid")

// LocalSealer はCloud KMSを使わない環境向けの封印実装。
// LOCAL_SEAL_KEY から HKDF-SHA-256 で導出した鍵で XChaCha20-Poly1305 暗号化する。
// 出力形式: nonce (24 bytes) || ciphertext || tag (16 bytes)
type LocalSealer struct {
	key []byte
}

// NewLocalSealer はシークレット文字列から LocalSealer を生成する。
func NewLocalSealer(secret string) (*LocalSealer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("local seal key must be at least 16 bytes")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, sealAAD)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving seal key: %w", err)
	}
	return &LocalSealer{key: key}, nil
}

// Encrypt は平文を封印する。
func (s *LocalSealer) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, sealAAD), nil
}

// Decrypt は封印を解く。
func (s *LocalSealer) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: too short", ErrSealedDataInvalid)
	}

	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, sealAAD)
	if err != nil {
		return nil, ErrSealedDataInvalid
	}
	return plaintext, nil
}
