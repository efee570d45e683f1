// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rsactl",
		Short:        "Modified RSA service CLI",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("RSACTL_API_URL")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set RSACTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(disableCmd())
	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rsactl version %s\n", version)
		},
	}
}

// doRequest はAPIを呼び出し、期待するステータスならレスポンスボディを返す。
func doRequest(cmd *cobra.Command, method, path string, payload interface{}, wantStatus int) ([]byte, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set RSACTL_API_URL)")
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(apiURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("server returned status %d", statusCode)
}

// printJSON は --output json のとき生のレスポンスを出力し true を返す。
func printJSON(cmd *cobra.Command, body []byte) bool {
	if output != "json" {
		return false
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	return true
}

// validateDecimal は引数が10進整数であることを確認する。素数判定はサーバーで行う。
func validateDecimal(name, s string) error {
	if _, ok := new(big.Int).SetString(s, 10); !ok {
		return fmt.Errorf("--%s must be a decimal integer", name)
	}
	return nil
}

type keyMetadata struct {
	TenantID       string `json:"tenant_id"`
	Generation     uint   `json:"generation"`
	PublicExponent string `json:"public_exponent"`
	Modulus        string `json:"modulus"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// keyMutationCmd は create と rotate の共通実装。
func keyMutationCmd(use, short, path, verb string) *cobra.Command {
	var tenantID, p, q string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDecimal("p", p); err != nil {
				return err
			}
			if err := validateDecimal("q", q); err != nil {
				return err
			}

			body, err := doRequest(cmd, http.MethodPost,
				fmt.Sprintf("/v1/tenants/%s/keys%s", tenantID, path),
				map[string]string{"p": p, "q": q}, http.StatusCreated)
			if err != nil {
				return err
			}
			if printJSON(cmd, body) {
				return nil
			}

			var result keyMetadata
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s key for tenant %q (generation: %d, e: %s, n: %s)\n",
				verb, tenantID, result.Generation, result.PublicExponent, result.Modulus)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&p, "p", "", "Prime p (required)")
	cmd.Flags().StringVar(&q, "q", "", "Prime q (required)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("p")
	cmd.MarkFlagRequired("q")
	return cmd
}

// createCmd は鍵の作成コマンド。
func createCmd() *cobra.Command {
	return keyMutationCmd("create", "Create the first key for a tenant from primes p and q", "", "Created")
}

// rotateCmd は鍵のローテーションコマンド。
func rotateCmd() *cobra.Command {
	return keyMutationCmd("rotate", "Rotate the key for a tenant to new primes p and q", "/rotate", "Rotated")
}

// getCmd は公開鍵の取得コマンド。
func getCmd() *cobra.Command {
	var tenantID string
	var generation uint
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get the public key for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/tenants/%s/keys/current", tenantID)
			if generation > 0 {
				path = fmt.Sprintf("/v1/tenants/%s/keys/%d", tenantID, generation)
			}

			body, err := doRequest(cmd, http.MethodGet, path, nil, http.StatusOK)
			if err != nil {
				return err
			}
			if printJSON(cmd, body) {
				return nil
			}

			var result keyMetadata
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation %d: (e, n) = (%s, %s)\n",
				result.Generation, result.PublicExponent, result.Modulus)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (optional, defaults to current)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// listCmd は鍵一覧の取得コマンド。
func listCmd() *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all keys for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := doRequest(cmd, http.MethodGet, fmt.Sprintf("/v1/tenants/%s/keys", tenantID), nil, http.StatusOK)
			if err != nil {
				return err
			}
			if printJSON(cmd, body) {
				return nil
			}

			var result struct {
				Keys []keyMetadata `json:"keys"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-10s %-8s %-12s %s\n", "GENERATION", "STATUS", "E", "N", "CREATED_AT")
			for _, k := range result.Keys {
				fmt.Fprintf(out, "%-12d %-10s %-8s %-12s %s\n", k.Generation, k.Status, k.PublicExponent, k.Modulus, k.CreatedAt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// disableCmd は鍵の無効化コマンド。
func disableCmd() *cobra.Command {
	var tenantID string
	var generation uint
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable a key for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generation == 0 {
				return fmt.Errorf("--generation is required")
			}

			_, err := doRequest(cmd, http.MethodDelete,
				fmt.Sprintf("/v1/tenants/%s/keys/%d", tenantID, generation), nil, http.StatusAccepted)
			if err != nil {
				return err
			}

			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), "{}")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled key for tenant %q (generation: %d)\n", tenantID, generation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (required)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("generation")
	return cmd
}
