package infra

import (
	"context"
	"fmt"
	"log/slog"

	"modified-rsa-service/config"
)

// Sealer は素数の組を封印/開封する実装の共通形。
type Sealer interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// Close は何もしない。
func (s *LocalSealer) Close() error { return nil }

// NewSealer は設定に応じた Sealer を返す。KMS_KEY_NAME が優先される。
func NewSealer(ctx context.Context, cfg *config.Config) (Sealer, error) {
	switch {
	case cfg.KMSKeyName != "":
		slog.InfoContext(ctx, "using Cloud KMS sealer", "key_name", cfg.KMSKeyName)
		c, err := NewKMSClient(ctx, cfg.KMSKeyName)
		if err != nil {
			return nil, err
		}
		return c, nil
	case cfg.LocalSealKey != "":
		slog.WarnContext(ctx, "using local sealer; not for multi-node production use")
		s, err := NewLocalSealer(cfg.LocalSealKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("either KMS_KEY_NAME or LOCAL_SEAL_KEY must be set")
	}
}
