package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modified-rsa-service/internal/domain"
	"modified-rsa-service/internal/modrsa"
)

func TestEncrypt_Success(t *testing.T) {
	repo := &mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}
	h := setupHandler(repo, &mockKMSClient{})

	req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/encrypt", `{"plaintext":"Hi"}`,
		map[string]string{"tenant_id": "tenant-001"})
	rec := httptest.NewRecorder()
	h.Encrypt(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CiphertextResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if strings.Join(resp.Ciphertext, ",") != "222,116" {
		t.Errorf("want ciphertext [222 116], got %v", resp.Ciphertext)
	}
	if resp.Generation != 1 {
		t.Errorf("want generation 1, got %d", resp.Generation)
	}
}

func TestEncrypt_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		repo     *mockKeyRepository
		kms      *mockKMSClient
		wantCode int
		wantErr  string
	}{
		{"non-letter", `{"plaintext":"Hi!"}`,
			&mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}, &mockKMSClient{},
			http.StatusBadRequest, "INVALID_INPUT"},
		{"empty plaintext", `{"plaintext":""}`,
			&mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}, &mockKMSClient{},
			http.StatusBadRequest, "INVALID_INPUT"},
		{"no key", `{"plaintext":"Hi"}`,
			&mockKeyRepository{}, &mockKMSClient{},
			http.StatusNotFound, "KEY_NOT_FOUND"},
		{"disabled generation", `{"plaintext":"Hi","generation":1}`,
			&mockKeyRepository{findByGenResult: storedKey(1, domain.KeyStatusDisabled)}, &mockKMSClient{},
			http.StatusGone, "KEY_DISABLED"},
		{"unseal failure", `{"plaintext":"Hi"}`,
			&mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}, &mockKMSClient{decryptErr: errors.New("kms down")},
			http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown field", `{"plaintext":"Hi","key":"x"}`,
			&mockKeyRepository{}, &mockKMSClient{},
			http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(tt.repo, tt.kms)
			req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/encrypt", tt.body,
				map[string]string{"tenant_id": "tenant-001"})
			rec := httptest.NewRecorder()
			h.Encrypt(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("want status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if resp := decodeBody(t, rec); resp["code"] != tt.wantErr {
				t.Errorf("want code %s, got %v", tt.wantErr, resp["code"])
			}
		})
	}
}

func TestEncrypt_RangeViolation(t *testing.T) {
	// n=33 では大文字の値が法以上になる
	key := storedKey(1, domain.KeyStatusActive)
	key.PublicExponent = "3"
	key.Modulus = "33"
	key.SealedPrimes = []byte(`encrypted:{"p":"3","q":"11"}`)
	h := setupHandler(&mockKeyRepository{findLatestResult: key}, &mockKMSClient{})

	req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/encrypt", `{"plaintext":"Hi"}`,
		map[string]string{"tenant_id": "tenant-001"})
	rec := httptest.NewRecorder()
	h.Encrypt(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody(t, rec); resp["code"] != "RANGE_VIOLATION" {
		t.Errorf("want code RANGE_VIOLATION, got %v", resp["code"])
	}
}

func TestEncrypt_KeyMaterialMismatch(t *testing.T) {
	key := storedKey(1, domain.KeyStatusActive)
	key.Modulus = "221"
	h := setupHandler(&mockKeyRepository{findLatestResult: key}, &mockKMSClient{})

	req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/encrypt", `{"plaintext":"Hi"}`,
		map[string]string{"tenant_id": "tenant-001"})
	rec := httptest.NewRecorder()
	h.Encrypt(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want status 500, got %d", rec.Code)
	}
}

func TestDecrypt_Success(t *testing.T) {
	repo := &mockKeyRepository{findByGenResult: storedKey(1, domain.KeyStatusActive)}
	h := setupHandler(repo, &mockKMSClient{})

	req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/decrypt",
		`{"ciphertext":["266","266","108","222","166"],"generation":1}`,
		map[string]string{"tenant_id": "tenant-001"})
	rec := httptest.NewRecorder()
	h.Decrypt(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PlaintextResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Plaintext != "Hello" {
		t.Errorf("want plaintext Hello, got %q", resp.Plaintext)
	}
}

func TestDecrypt_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"non-decimal value", `{"ciphertext":["22a"]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty ciphertext", `{"ciphertext":[]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"out of range", `{"ciphertext":["1000"]}`, http.StatusUnprocessableEntity, "RANGE_VIOLATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}
			h := setupHandler(repo, &mockKMSClient{})
			req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/decrypt", tt.body,
				map[string]string{"tenant_id": "tenant-001"})
			rec := httptest.NewRecorder()
			h.Decrypt(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("want status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if resp := decodeBody(t, rec); resp["code"] != tt.wantErr {
				t.Errorf("want code %s, got %v", tt.wantErr, resp["code"])
			}
		})
	}
}

func TestDecrypt_RangeViolationHidesDecryptedValue(t *testing.T) {
	// 202 は (202-2)/2 = 100 に戻り、100^103 mod 143 = 100 は文字コードの範囲外
	repo := &mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}
	h := setupHandler(repo, &mockKMSClient{})
	req := newRequest(http.MethodPost, "/v1/tenants/tenant-001/decrypt", `{"ciphertext":["202"]}`,
		map[string]string{"tenant_id": "tenant-001"})
	rec := httptest.NewRecorder()
	h.Decrypt(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "100") {
		t.Errorf("response leaks the decrypted value: %s", body)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "RANGE_VIOLATION" {
		t.Errorf("want code RANGE_VIOLATION, got %v", resp["code"])
	}
	if resp["message"] != msgRangeViolation {
		t.Errorf("want message %q, got %v", msgRangeViolation, resp["message"])
	}
}

func TestWriteServiceError_FixedMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{"invalid input", fmt.Errorf("%w: p=12 is not prime", modrsa.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT", msgInvalidInput},
		{"range violation", fmt.Errorf("%w: decrypted value 99 at index 0", modrsa.ErrRangeViolation), http.StatusUnprocessableEntity, "RANGE_VIOLATION", msgRangeViolation},
		{"degeneracy", fmt.Errorf("%w: phi=1", modrsa.ErrArithmeticDegeneracy), http.StatusUnprocessableEntity, "DEGENERATE_KEY", msgDegenerateKey},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tt.err)

			if rec.Code != tt.wantCode {
				t.Fatalf("want status %d, got %d", tt.wantCode, rec.Code)
			}
			resp := decodeBody(t, rec)
			if resp["code"] != tt.wantErr || resp["message"] != tt.wantMsg {
				t.Errorf("want %s/%q, got %v/%v", tt.wantErr, tt.wantMsg, resp["code"], resp["message"])
			}
		})
	}
}

func TestRouter_EncryptDecrypt(t *testing.T) {
	repo := &mockKeyRepository{findLatestResult: storedKey(1, domain.KeyStatusActive)}
	srv := httptest.NewServer(NewRouter(setupHandler(repo, &mockKMSClient{}), nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/tenants/tenant-001/encrypt", "application/json",
		strings.NewReader(`{"plaintext":"Hello"}`))
	if err != nil {
		t.Fatalf("encrypt request failed: %v", err)
	}
	var ct CiphertextResponse
	json.NewDecoder(resp.Body).Decode(&ct)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want status 200, got %d", resp.StatusCode)
	}

	body, _ := json.Marshal(DecryptRequest{Ciphertext: ct.Ciphertext})
	resp, err = http.Post(srv.URL+"/v1/tenants/tenant-001/decrypt", "application/json",
		strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("decrypt request failed: %v", err)
	}
	defer resp.Body.Close()

	var pt PlaintextResponse
	json.NewDecoder(resp.Body).Decode(&pt)
	if pt.Plaintext != "Hello" {
		t.Errorf("round trip = %q, want Hello", pt.Plaintext)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("want status 200, got %d", resp.StatusCode)
	}
}

func TestRouter_Healthz(t *testing.T) {
	r := NewRouter(setupHandler(&mockKeyRepository{}, &mockKMSClient{}), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
}
