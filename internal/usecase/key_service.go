// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"modified-rsa-service/internal/domain"
	"modified-rsa-service/internal/modrsa"
)

const tracerName = "modified-rsa-service/internal/usecase"

// KeyRepository はデータアクセスのインターフェース。
type KeyRepository interface {
	ExistsByTenantID(ctx context.Context, tenantID string) (bool, error)
	Create(ctx context.Context, key *domain.RSAKey) error
	FindByTenantIDAndGeneration(ctx context.Context, tenantID string, generation uint) (*domain.RSAKey, error)
	FindLatestActiveByTenantID(ctx context.Context, tenantID string) (*domain.RSAKey, error)
	FindAllByTenantID(ctx context.Context, tenantID string) ([]*domain.RSAKey, error)
	GetMaxGeneration(ctx context.Context, tenantID string) (uint, error)
	UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error
}

// KMSClient は素数の組を封印/開封するインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// KeyService は鍵の管理と暗号化・復号のビジネスロジックを提供する。
type KeyService struct {
	repo      KeyRepository
	kmsClient KMSClient
	tracer    trace.Tracer
}

// NewKeyService は新しいKeyServiceを生成する。
func NewKeyService(repo KeyRepository, kmsClient KMSClient) *KeyService {
	return &KeyService{
		repo:      repo,
		kmsClient: kmsClient,
		tracer:    otel.Tracer(tracerName),
	}
}

// sealKeySet は素数の組を封印して保存用の鍵エンティティを作る。
func (s *KeyService) sealKeySet(ctx context.Context, tenantID string, generation uint, ks *modrsa.KeySet) (*domain.RSAKey, error) {
	payload, err := json.Marshal(domain.PrimePair{
		P: ks.P.String(),
		Q: ks.Q.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling primes: %w", err)
	}

	sealed, err := s.kmsClient.Encrypt(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("sealing primes: %w", err)
	}

	return &domain.RSAKey{
		TenantID:       tenantID,
		Generation:     generation,
		PublicExponent: ks.Public.E.String(),
		Modulus:        ks.N.String(),
		SealedPrimes:   sealed,
		Status:         domain.KeyStatusActive,
	}, nil
}

// unsealKeySet は封印を解いて鍵セットを再導出し、保存済みの公開鍵と照合する。
// 素数性は作成時に確認済みのため、ここでは (e, n) の一致だけを確かめる。
func (s *KeyService) unsealKeySet(ctx context.Context, key *domain.RSAKey) (*modrsa.KeySet, error) {
	payload, err := s.kmsClient.Decrypt(ctx, key.SealedPrimes)
	if err != nil {
		return nil, fmt.Errorf("unsealing primes: %w", err)
	}

	var pair domain.PrimePair
	if err := json.Unmarshal(payload, &pair); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyMaterialMismatch, err)
	}
	p, okP := new(big.Int).SetString(pair.P, 10)
	q, okQ := new(big.Int).SetString(pair.Q, 10)
	if !okP || !okQ {
		return nil, fmt.Errorf("%w: malformed primes", domain.ErrKeyMaterialMismatch)
	}

	ks, err := modrsa.RestoreKeySet(p, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyMaterialMismatch, err)
	}
	if ks.Public.E.String() != key.PublicExponent || ks.N.String() != key.Modulus {
		return nil, domain.ErrKeyMaterialMismatch
	}
	return ks, nil
}

func toMetadata(key *domain.RSAKey) *domain.KeyMetadata {
	return &domain.KeyMetadata{
		TenantID:       key.TenantID,
		Generation:     key.Generation,
		PublicExponent: key.PublicExponent,
		Modulus:        key.Modulus,
		Status:         key.Status,
		CreatedAt:      key.CreatedAt,
	}
}

func toPublicKey(key *domain.RSAKey) *domain.PublicKey {
	return &domain.PublicKey{
		TenantID:       key.TenantID,
		Generation:     key.Generation,
		PublicExponent: key.PublicExponent,
		Modulus:        key.Modulus,
	}
}

// CreateKey は指定されたテナントに素数 p, q から最初の鍵を作成する。
func (s *KeyService) CreateKey(ctx context.Context, tenantID string, p, q *big.Int) (*domain.KeyMetadata, error) {
	ctx, span := s.tracer.Start(ctx, "KeyService.CreateKey",
		trace.WithAttributes(attribute.String("tenant_id", tenantID)))
	defer span.End()

	// 既存チェック
	exists, err := s.repo.ExistsByTenantID(ctx, tenantID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("checking existing key: %w", err))
	}
	if exists {
		return nil, recordError(span, domain.ErrKeyAlreadyExists)
	}

	// 鍵を導出
	ks, err := modrsa.DeriveKeySet(p, q)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("deriving key set: %w", err))
	}

	key, err := s.sealKeySet(ctx, tenantID, 1, ks)
	if err != nil {
		return nil, recordError(span, err)
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, recordError(span, fmt.Errorf("creating key: %w", err))
	}

	return toMetadata(key), nil
}

// RotateKey は指定されたテナントに新しい世代の鍵を作成する。
func (s *KeyService) RotateKey(ctx context.Context, tenantID string, p, q *big.Int) (*domain.KeyMetadata, error) {
	ctx, span := s.tracer.Start(ctx, "KeyService.RotateKey",
		trace.WithAttributes(attribute.String("tenant_id", tenantID)))
	defer span.End()

	// 既存鍵の確認
	maxGen, err := s.repo.GetMaxGeneration(ctx, tenantID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("getting max generation: %w", err))
	}
	if maxGen == 0 {
		return nil, recordError(span, domain.ErrKeyNotFound)
	}

	ks, err := modrsa.DeriveKeySet(p, q)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("deriving key set: %w", err))
	}

	key, err := s.sealKeySet(ctx, tenantID, maxGen+1, ks)
	if err != nil {
		return nil, recordError(span, err)
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, recordError(span, fmt.Errorf("creating key: %w", err))
	}

	return toMetadata(key), nil
}

// GetCurrentKey は指定されたテナントの現在有効な公開鍵を取得する。
func (s *KeyService) GetCurrentKey(ctx context.Context, tenantID string) (*domain.PublicKey, error) {
	key, err := s.repo.FindLatestActiveByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding current key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	return toPublicKey(key), nil
}

// GetKeyByGeneration は指定されたテナント・世代の公開鍵を取得する。
func (s *KeyService) GetKeyByGeneration(ctx context.Context, tenantID string, generation uint) (*domain.PublicKey, error) {
	key, err := s.findUsableKey(ctx, tenantID, generation)
	if err != nil {
		return nil, err
	}
	return toPublicKey(key), nil
}

// findUsableKey は世代を指定して有効な鍵を取得する。generation が 0 の場合は最新の有効鍵。
func (s *KeyService) findUsableKey(ctx context.Context, tenantID string, generation uint) (*domain.RSAKey, error) {
	if generation == 0 {
		key, err := s.repo.FindLatestActiveByTenantID(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("finding current key: %w", err)
		}
		if key == nil {
			return nil, domain.ErrKeyNotFound
		}
		return key, nil
	}

	key, err := s.repo.FindByTenantIDAndGeneration(ctx, tenantID, generation)
	if err != nil {
		return nil, fmt.Errorf("finding key: %w", err)
	}
	if key == nil {
		return nil, domain.ErrKeyNotFound
	}
	if key.Status == domain.KeyStatusDisabled {
		return nil, domain.ErrKeyDisabled
	}
	return key, nil
}

// ListKeys は指定されたテナントの全世代の鍵メタデータを取得する。
func (s *KeyService) ListKeys(ctx context.Context, tenantID string) ([]*domain.KeyMetadata, error) {
	keys, err := s.repo.FindAllByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding keys: %w", err)
	}

	metadata := make([]*domain.KeyMetadata, len(keys))
	for i, k := range keys {
		metadata[i] = toMetadata(k)
	}
	return metadata, nil
}

// DisableKey は指定されたテナント・世代の鍵を無効化する。
func (s *KeyService) DisableKey(ctx context.Context, tenantID string, generation uint) error {
	key, err := s.repo.FindByTenantIDAndGeneration(ctx, tenantID, generation)
	if err != nil {
		return fmt.Errorf("finding key: %w", err)
	}
	if key == nil {
		return domain.ErrKeyNotFound
	}
	if key.Status == domain.KeyStatusDisabled {
		return domain.ErrKeyAlreadyDisabled
	}

	if err := s.repo.UpdateStatus(ctx, key.ID, domain.KeyStatusDisabled); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}

// EncryptText は平文を暗号化し、送信用の暗号文列を返す。
// generation が 0 の場合は現在有効な鍵を使う。
func (s *KeyService) EncryptText(ctx context.Context, tenantID string, generation uint, plaintext string) (*domain.Ciphertext, error) {
	ctx, span := s.tracer.Start(ctx, "KeyService.EncryptText",
		trace.WithAttributes(
			attribute.String("tenant_id", tenantID),
			attribute.Int("generation", int(generation)),
			attribute.Int("plaintext.length", len(plaintext)),
		))
	defer span.End()

	key, err := s.findUsableKey(ctx, tenantID, generation)
	if err != nil {
		return nil, recordError(span, err)
	}
	ks, err := s.unsealKeySet(ctx, key)
	if err != nil {
		return nil, recordError(span, err)
	}

	values, err := ks.EncryptString(plaintext)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("encrypting text: %w", err))
	}

	return &domain.Ciphertext{
		TenantID:   key.TenantID,
		Generation: key.Generation,
		Values:     values,
	}, nil
}

// DecryptText は送信用の暗号文列を復号して平文を返す。
func (s *KeyService) DecryptText(ctx context.Context, tenantID string, generation uint, values []*big.Int) (*domain.Plaintext, error) {
	ctx, span := s.tracer.Start(ctx, "KeyService.DecryptText",
		trace.WithAttributes(
			attribute.String("tenant_id", tenantID),
			attribute.Int("generation", int(generation)),
			attribute.Int("ciphertext.length", len(values)),
		))
	defer span.End()

	key, err := s.findUsableKey(ctx, tenantID, generation)
	if err != nil {
		return nil, recordError(span, err)
	}
	ks, err := s.unsealKeySet(ctx, key)
	if err != nil {
		return nil, recordError(span, err)
	}

	text, err := ks.DecryptString(values)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("decrypting text: %w", err))
	}

	return &domain.Plaintext{
		TenantID:   key.TenantID,
		Generation: key.Generation,
		Text:       text,
	}, nil
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
