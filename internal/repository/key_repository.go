// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"modified-rsa-service/internal/domain"
)

// RSAKeyModel はgorm用のモデル定義。
type RSAKeyModel struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	TenantID       string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_tenant_generation;index:idx_tenant_status"`
	Generation     uint      `gorm:"not null;uniqueIndex:uk_tenant_generation"`
	PublicExponent string    `gorm:"type:text;not null"`
	Modulus        string    `gorm:"type:text;not null"`
	SealedPrimes   []byte    `gorm:"type:blob;not null"`
	Status         string    `gorm:"type:varchar(16);not null;default:'active';index:idx_tenant_status"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (RSAKeyModel) TableName() string {
	return "rsa_keys"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *RSAKeyModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (m *RSAKeyModel) toDomain() *domain.RSAKey {
	return &domain.RSAKey{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Generation:     m.Generation,
		PublicExponent: m.PublicExponent,
		Modulus:        m.Modulus,
		SealedPrimes:   m.SealedPrimes,
		Status:         domain.KeyStatus(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// KeyRepository はrsa_keysテーブルへのアクセスを提供する。
type KeyRepository struct {
	db *gorm.DB
}

// NewKeyRepository は新しいKeyRepositoryを生成する。
func NewKeyRepository(db *gorm.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

// ExistsByTenantID は指定されたテナントに鍵が存在するか確認する。
func (r *KeyRepository) ExistsByTenantID(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RSAKeyModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count keys by tenant_id",
			"operation", "exists_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// Create は新しい鍵を保存し、採番されたIDとタイムスタンプをエンティティに反映する。
func (r *KeyRepository) Create(ctx context.Context, key *domain.RSAKey) error {
	model := &RSAKeyModel{
		ID:             key.ID,
		TenantID:       key.TenantID,
		Generation:     key.Generation,
		PublicExponent: key.PublicExponent,
		Modulus:        key.Modulus,
		SealedPrimes:   key.SealedPrimes,
		Status:         string(key.Status),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create key",
			"operation", "create",
			"tenant_id", key.TenantID,
			"generation", key.Generation,
			"error", err,
		)
		return err
	}
	key.ID = model.ID
	key.CreatedAt = model.CreatedAt
	key.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByTenantIDAndGeneration は指定されたテナント・世代の鍵を取得する。存在しない場合はnil。
func (r *KeyRepository) FindByTenantIDAndGeneration(ctx context.Context, tenantID string, generation uint) (*domain.RSAKey, error) {
	var model RSAKeyModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND generation = ?", tenantID, generation).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find key",
			"operation", "find_by_tenant_id_and_generation",
			"tenant_id", tenantID,
			"generation", generation,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindLatestActiveByTenantID は指定されたテナントの最新有効鍵を取得する。存在しない場合はnil。
func (r *KeyRepository) FindLatestActiveByTenantID(ctx context.Context, tenantID string) (*domain.RSAKey, error) {
	var model RSAKeyModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.KeyStatusActive)).
		Order("generation DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find latest active key",
			"operation", "find_latest_active_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAllByTenantID は指定されたテナントの全鍵を世代順に取得する。
func (r *KeyRepository) FindAllByTenantID(ctx context.Context, tenantID string) ([]*domain.RSAKey, error) {
	var models []RSAKeyModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("generation ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all keys by tenant_id",
			"operation", "find_all_by_tenant_id",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}

	keys := make([]*domain.RSAKey, len(models))
	for i := range models {
		keys[i] = models[i].toDomain()
	}
	return keys, nil
}

// GetMaxGeneration は指定されたテナントの最大世代番号を取得する。鍵が無ければ0。
func (r *KeyRepository) GetMaxGeneration(ctx context.Context, tenantID string) (uint, error) {
	var maxGen *uint
	err := r.db.WithContext(ctx).
		Model(&RSAKeyModel{}).
		Where("tenant_id = ?", tenantID).
		Select("MAX(generation)").
		Scan(&maxGen).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to get max generation",
			"operation", "get_max_generation",
			"tenant_id", tenantID,
			"error", err,
		)
		return 0, err
	}
	if maxGen == nil {
		return 0, nil
	}
	return *maxGen, nil
}

// UpdateStatus は指定されたIDの鍵のステータスを更新する。
func (r *KeyRepository) UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error {
	err := r.db.WithContext(ctx).
		Model(&RSAKeyModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update status",
			"operation", "update_status",
			"id", id,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}
