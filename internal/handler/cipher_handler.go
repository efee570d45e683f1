package handler

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"modified-rsa-service/internal/middleware"
	"modified-rsa-service/pkg/httputil"
)

// EncryptRequest は暗号化のリクエスト形式。generation 省略時は現在の鍵。
type EncryptRequest struct {
	Plaintext  string `json:"plaintext"`
	Generation uint   `json:"generation"`
}

// DecryptRequest は復号のリクエスト形式。
type DecryptRequest struct {
	Ciphertext []string `json:"ciphertext"`
	Generation uint     `json:"generation"`
}

// CiphertextResponse は暗号文のレスポンス形式。値は10進文字列。
type CiphertextResponse struct {
	TenantID   string   `json:"tenant_id"`
	Generation uint     `json:"generation"`
	Ciphertext []string `json:"ciphertext"`
}

// PlaintextResponse は平文のレスポンス形式。
type PlaintextResponse struct {
	TenantID   string `json:"tenant_id"`
	Generation uint   `json:"generation"`
	Plaintext  string `json:"plaintext"`
}

// Encrypt は平文を暗号化する。
func (h *KeyHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	var req EncryptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	ct, err := h.service.EncryptText(r.Context(), tenantID, req.Generation, req.Plaintext)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ENCRYPT", tenantID, req.Generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "ENCRYPT", tenantID, ct.Generation, middleware.ResultSuccess)
	values := make([]string, len(ct.Values))
	for i, v := range ct.Values {
		values[i] = v.String()
	}
	httputil.JSON(w, http.StatusOK, CiphertextResponse{
		TenantID:   ct.TenantID,
		Generation: ct.Generation,
		Ciphertext: values,
	})
}

// Decrypt は暗号文を復号する。
func (h *KeyHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	var req DecryptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	values := make([]*big.Int, len(req.Ciphertext))
	for i, s := range req.Ciphertext {
		v, ok := parseDecimal(s)
		if !ok {
			httputil.Error(w, http.StatusBadRequest, "INVALID_INPUT", "ciphertext values must be decimal integers")
			return
		}
		values[i] = v
	}

	pt, err := h.service.DecryptText(r.Context(), tenantID, req.Generation, values)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DECRYPT", tenantID, req.Generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DECRYPT", tenantID, pt.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, PlaintextResponse{
		TenantID:   pt.TenantID,
		Generation: pt.Generation,
		Plaintext:  pt.Text,
	})
}
