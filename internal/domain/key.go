// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"math/big"
	"time"
)

// KeyStatus は鍵のステータスを表す。
type KeyStatus string

const (
	// KeyStatusActive は有効な鍵を表す。
	KeyStatusActive KeyStatus = "active"
	// KeyStatusDisabled は無効化された鍵を表す。
	KeyStatusDisabled KeyStatus = "disabled"
)

// RSAKey は永続化される鍵エンティティを表す。
// 素数 p, q は封印（KMS 等で暗号化）した状態でのみ保持する。
type RSAKey struct {
	ID             string
	TenantID       string
	Generation     uint
	PublicExponent string // e（10進数）
	Modulus        string // n（10進数）
	SealedPrimes   []byte
	Status         KeyStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// KeyMetadata は鍵のメタデータを表す（秘密情報を含まない）。
type KeyMetadata struct {
	TenantID       string
	Generation     uint
	PublicExponent string
	Modulus        string
	Status         KeyStatus
	CreatedAt      time.Time
}

// PublicKey は公開鍵 (e, n) を表す。
type PublicKey struct {
	TenantID       string
	Generation     uint
	PublicExponent string
	Modulus        string
}

// PrimePair は鍵の導出元となる素数の組。封印の対象。
type PrimePair struct {
	P string `json:"p"`
	Q string `json:"q"`
}

// Ciphertext は送信用に変換済みの暗号文列を表す。
type Ciphertext struct {
	TenantID   string
	Generation uint
	Values     []*big.Int
}

// Plaintext は復号済みの平文を表す。
type Plaintext struct {
	TenantID   string
	Generation uint
	Text       string
}
