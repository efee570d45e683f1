// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"modified-rsa-service/internal/domain"
	"modified-rsa-service/internal/middleware"
	"modified-rsa-service/internal/modrsa"
	"modified-rsa-service/internal/usecase"
	"modified-rsa-service/pkg/httputil"
)

var tenantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	msgInvalidInput   = "input is not acceptable for this operation"
	msgRangeViolation = "value is out of range for this key"
	msgDegenerateKey  = "primes do not yield a usable key"
)

// maxPrimeDigits は受け付ける素数の最大桁数。素数判定が試し割りのため上限を設ける。
const maxPrimeDigits = 12

// KeyHandler はHTTPハンドラを提供する。
type KeyHandler struct {
	service *usecase.KeyService
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(service *usecase.KeyService) *KeyHandler {
	return &KeyHandler{service: service}
}

func validateTenantID(tenantID string) error {
	if !tenantIDRegex.MatchString(tenantID) {
		return domain.ErrInvalidTenantID
	}
	return nil
}

func validateGeneration(genStr string) (uint, error) {
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil || gen < 1 {
		return 0, domain.ErrInvalidGeneration
	}
	return uint(gen), nil
}

// parseDecimal は10進文字列を整数に変換する。
func parseDecimal(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}

// PrimePairRequest は鍵作成・ローテーションのリクエスト形式。
type PrimePairRequest struct {
	P string `json:"p"`
	Q string `json:"q"`
}

// KeyMetadataResponse は鍵メタデータのレスポンス形式。
type KeyMetadataResponse struct {
	TenantID       string `json:"tenant_id"`
	Generation     uint   `json:"generation"`
	PublicExponent string `json:"public_exponent"`
	Modulus        string `json:"modulus"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// PublicKeyResponse は公開鍵のレスポンス形式。
type PublicKeyResponse struct {
	TenantID       string `json:"tenant_id"`
	Generation     uint   `json:"generation"`
	PublicExponent string `json:"public_exponent"`
	Modulus        string `json:"modulus"`
}

// KeyListResponse は鍵一覧のレスポンス形式。
type KeyListResponse struct {
	Keys []KeyMetadataResponse `json:"keys"`
}

func toMetadataResponse(m *domain.KeyMetadata) KeyMetadataResponse {
	return KeyMetadataResponse{
		TenantID:       m.TenantID,
		Generation:     m.Generation,
		PublicExponent: m.PublicExponent,
		Modulus:        m.Modulus,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func toPublicKeyResponse(k *domain.PublicKey) PublicKeyResponse {
	return PublicKeyResponse{
		TenantID:       k.TenantID,
		Generation:     k.Generation,
		PublicExponent: k.PublicExponent,
		Modulus:        k.Modulus,
	}
}

// writeServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// 演算エラーの詳細には鍵由来の値が含まれるため、クライアントには固定文言のみ返しログに残す。
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this tenant")
	case errors.Is(err, domain.ErrKeyAlreadyExists):
		httputil.Error(w, http.StatusConflict, "KEY_ALREADY_EXISTS", "key already exists for this tenant")
	case errors.Is(err, domain.ErrKeyAlreadyDisabled):
		httputil.Error(w, http.StatusConflict, "KEY_ALREADY_DISABLED", "key is already disabled")
	case errors.Is(err, domain.ErrKeyDisabled):
		httputil.Error(w, http.StatusGone, "KEY_DISABLED", "key has been disabled")
	case errors.Is(err, modrsa.ErrInvalidInput):
		slog.WarnContext(r.Context(), "request rejected", "code", "INVALID_INPUT", "error", err)
		httputil.Error(w, http.StatusBadRequest, "INVALID_INPUT", msgInvalidInput)
	case errors.Is(err, modrsa.ErrRangeViolation):
		slog.WarnContext(r.Context(), "request rejected", "code", "RANGE_VIOLATION", "error", err)
		httputil.Error(w, http.StatusUnprocessableEntity, "RANGE_VIOLATION", msgRangeViolation)
	case errors.Is(err, modrsa.ErrArithmeticDegeneracy):
		slog.WarnContext(r.Context(), "request rejected", "code", "DEGENERATE_KEY", "error", err)
		httputil.Error(w, http.StatusUnprocessableEntity, "DEGENERATE_KEY", msgDegenerateKey)
	default:
		slog.ErrorContext(r.Context(), "request failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// decodePrimePair はリクエストボディから素数の組を読み取る。
func decodePrimePair(w http.ResponseWriter, r *http.Request) (p, q *big.Int, ok bool) {
	var req PrimePairRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return nil, nil, false
	}
	if len(req.P) > maxPrimeDigits || len(req.Q) > maxPrimeDigits {
		httputil.Error(w, http.StatusBadRequest, "INVALID_INPUT", fmt.Sprintf("p and q must have at most %d digits", maxPrimeDigits))
		return nil, nil, false
	}
	p, okP := parseDecimal(req.P)
	q, okQ := parseDecimal(req.Q)
	if !okP || !okQ {
		httputil.Error(w, http.StatusBadRequest, "INVALID_INPUT", "p and q must be decimal integers")
		return nil, nil, false
	}
	return p, q, true
}

// CreateKey は素数の組から最初の鍵を作成する。
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	p, q, ok := decodePrimePair(w, r)
	if !ok {
		return
	}

	metadata, err := h.service.CreateKey(r.Context(), tenantID, p, q)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_KEY", tenantID, metadata.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusCreated, toMetadataResponse(metadata))
}

// GetCurrentKey は現在有効な公開鍵を取得する。
func (h *KeyHandler) GetCurrentKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	key, err := h.service.GetCurrentKey(r.Context(), tenantID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_CURRENT_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_CURRENT_KEY", tenantID, key.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, toPublicKeyResponse(key))
}

// GetKeyByGeneration は指定された世代の公開鍵を取得する。
func (h *KeyHandler) GetKeyByGeneration(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	generation, err := validateGeneration(chi.URLParam(r, "generation"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_GENERATION", "invalid generation number")
		return
	}

	key, err := h.service.GetKeyByGeneration(r.Context(), tenantID, generation)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_KEY_BY_GENERATION", tenantID, generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_KEY_BY_GENERATION", tenantID, generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, toPublicKeyResponse(key))
}

// RotateKey は新しい素数の組で鍵をローテーションする。
func (h *KeyHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	p, q, ok := decodePrimePair(w, r)
	if !ok {
		return
	}

	metadata, err := h.service.RotateKey(r.Context(), tenantID, p, q)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", tenantID, metadata.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusCreated, toMetadataResponse(metadata))
}

// ListKeys は鍵一覧を取得する。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	keys, err := h.service.ListKeys(r.Context(), tenantID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_KEYS", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "LIST_KEYS", tenantID, 0, middleware.ResultSuccess)
	response := KeyListResponse{
		Keys: make([]KeyMetadataResponse, len(keys)),
	}
	for i, k := range keys {
		response.Keys[i] = toMetadataResponse(k)
	}
	httputil.JSON(w, http.StatusOK, response)
}

// DisableKey は鍵を無効化する。
func (h *KeyHandler) DisableKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	generation, err := validateGeneration(chi.URLParam(r, "generation"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_GENERATION", "invalid generation number")
		return
	}

	if err := h.service.DisableKey(r.Context(), tenantID, generation); err != nil {
		middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", tenantID, generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", tenantID, generation, middleware.ResultSuccess)
	w.WriteHeader(http.StatusAccepted)
}
