package repository

import (
	"context"
	"io/fs"
	"sort"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"modified-rsa-service/internal/domain"
	"modified-rsa-service/migrations"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// :memory: は接続ごとに別DBになるため1接続に固定する
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	// 本番と同じDDLでrsa_keysテーブルを作成する
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("failed to list migrations: %v", err)
	}
	sort.Strings(files)
	for _, name := range files {
		ddl, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if err := db.Exec(string(ddl)).Error; err != nil {
			t.Fatalf("failed to apply %s: %v", name, err)
		}
	}

	return db
}

func insertKey(t *testing.T, db *gorm.DB, id, tenantID string, generation int, status string) {
	t.Helper()
	if err := db.Exec("INSERT INTO rsa_keys (id, tenant_id, generation, public_exponent, modulus, sealed_primes, status) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, tenantID, generation, "7", "143", []byte("sealed"), status).Error; err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
}

func TestKeyRepository_ExistsByTenantID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")

	// テナントに鍵が存在する場合
	exists, err := repo.ExistsByTenantID(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ExistsByTenantID failed: %v", err)
	}
	if !exists {
		t.Error("expected exists=true, got false")
	}

	// テナントに鍵が存在しない場合
	exists, err = repo.ExistsByTenantID(ctx, "tenant-2")
	if err != nil {
		t.Fatalf("ExistsByTenantID failed: %v", err)
	}
	if exists {
		t.Error("expected exists=false, got true")
	}
}

func TestKeyRepository_Create(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	key := &domain.RSAKey{
		TenantID:       "tenant-1",
		Generation:     1,
		PublicExponent: "7",
		Modulus:        "143",
		SealedPrimes:   []byte("sealed-primes"),
		Status:         domain.KeyStatusActive,
	}

	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// UUID自動生成を確認
	if key.ID == "" {
		t.Error("expected ID to be generated, got empty")
	}

	// タイムスタンプ反映を確認
	if key.CreatedAt.IsZero() || key.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := repo.FindByTenantIDAndGeneration(ctx, "tenant-1", 1)
	if err != nil {
		t.Fatalf("FindByTenantIDAndGeneration failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected key, got nil")
	}
	if got.PublicExponent != "7" || got.Modulus != "143" || string(got.SealedPrimes) != "sealed-primes" {
		t.Errorf("unexpected stored key: %+v", got)
	}
}

func TestKeyRepository_Create_DuplicateGeneration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")

	err := repo.Create(ctx, &domain.RSAKey{
		TenantID:       "tenant-1",
		Generation:     1,
		PublicExponent: "3",
		Modulus:        "87",
		SealedPrimes:   []byte("sealed"),
		Status:         domain.KeyStatusActive,
	})
	if err == nil {
		t.Error("expected unique constraint error, got nil")
	}
}

func TestKeyRepository_FindByTenantIDAndGeneration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")
	insertKey(t, db, "test-id-2", "tenant-1", 2, "disabled")

	key, err := repo.FindByTenantIDAndGeneration(ctx, "tenant-1", 2)
	if err != nil {
		t.Fatalf("FindByTenantIDAndGeneration failed: %v", err)
	}
	if key == nil {
		t.Fatal("expected key, got nil")
	}
	if key.ID != "test-id-2" || key.Status != domain.KeyStatusDisabled {
		t.Errorf("unexpected key: %+v", key)
	}

	// 存在しない世代
	key, err = repo.FindByTenantIDAndGeneration(ctx, "tenant-1", 3)
	if err != nil {
		t.Fatalf("FindByTenantIDAndGeneration failed: %v", err)
	}
	if key != nil {
		t.Errorf("expected nil, got %+v", key)
	}
}

func TestKeyRepository_FindLatestActiveByTenantID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")
	insertKey(t, db, "test-id-2", "tenant-1", 2, "active")
	insertKey(t, db, "test-id-3", "tenant-1", 3, "disabled")

	// 無効化された世代3を飛ばして世代2が返る
	key, err := repo.FindLatestActiveByTenantID(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("FindLatestActiveByTenantID failed: %v", err)
	}
	if key == nil || key.Generation != 2 {
		t.Errorf("expected generation 2, got %+v", key)
	}

	key, err = repo.FindLatestActiveByTenantID(ctx, "tenant-2")
	if err != nil {
		t.Fatalf("FindLatestActiveByTenantID failed: %v", err)
	}
	if key != nil {
		t.Errorf("expected nil, got %+v", key)
	}
}

func TestKeyRepository_FindAllByTenantID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-2", "tenant-1", 2, "active")
	insertKey(t, db, "test-id-1", "tenant-1", 1, "disabled")
	insertKey(t, db, "test-id-3", "tenant-2", 1, "active")

	keys, err := repo.FindAllByTenantID(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("FindAllByTenantID failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].Generation != 1 || keys[1].Generation != 2 {
		t.Errorf("expected ascending generations, got %d, %d", keys[0].Generation, keys[1].Generation)
	}

	keys, err = repo.FindAllByTenantID(ctx, "tenant-3")
	if err != nil {
		t.Fatalf("FindAllByTenantID failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected 0 keys, got %d", len(keys))
	}
}

func TestKeyRepository_GetMaxGeneration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	// 鍵が無い場合は0
	maxGen, err := repo.GetMaxGeneration(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("GetMaxGeneration failed: %v", err)
	}
	if maxGen != 0 {
		t.Errorf("expected 0, got %d", maxGen)
	}

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")
	insertKey(t, db, "test-id-2", "tenant-1", 3, "disabled")

	maxGen, err = repo.GetMaxGeneration(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("GetMaxGeneration failed: %v", err)
	}
	if maxGen != 3 {
		t.Errorf("expected 3, got %d", maxGen)
	}
}

func TestKeyRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewKeyRepository(db)

	insertKey(t, db, "test-id-1", "tenant-1", 1, "active")

	if err := repo.UpdateStatus(ctx, "test-id-1", domain.KeyStatusDisabled); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	key, err := repo.FindByTenantIDAndGeneration(ctx, "tenant-1", 1)
	if err != nil {
		t.Fatalf("FindByTenantIDAndGeneration failed: %v", err)
	}
	if key.Status != domain.KeyStatusDisabled {
		t.Errorf("expected disabled, got %s", key.Status)
	}
}
