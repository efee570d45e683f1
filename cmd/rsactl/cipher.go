package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// encryptCmd は平文の暗号化コマンド。
func encryptCmd() *cobra.Command {
	var tenantID, text string
	var generation uint
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a letters-only message with a tenant key",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := doRequest(cmd, http.MethodPost,
				fmt.Sprintf("/v1/tenants/%s/encrypt", tenantID),
				map[string]interface{}{"plaintext": text, "generation": generation}, http.StatusOK)
			if err != nil {
				return err
			}
			if printJSON(cmd, body) {
				return nil
			}

			var result struct {
				Generation uint     `json:"generation"`
				Ciphertext []string `json:"ciphertext"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generation %d: %s\n", result.Generation, strings.Join(result.Ciphertext, ","))
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&text, "text", "", "Plaintext, ASCII letters only (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (optional, defaults to current)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("text")
	return cmd
}

// decryptCmd は暗号文の復号コマンド。
func decryptCmd() *cobra.Command {
	var tenantID, ciphertext string
	var generation uint
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a comma-separated ciphertext with a tenant key",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := splitCiphertext(ciphertext)
			if err != nil {
				return err
			}

			body, err := doRequest(cmd, http.MethodPost,
				fmt.Sprintf("/v1/tenants/%s/decrypt", tenantID),
				map[string]interface{}{"ciphertext": values, "generation": generation}, http.StatusOK)
			if err != nil {
				return err
			}
			if printJSON(cmd, body) {
				return nil
			}

			var result struct {
				Plaintext string `json:"plaintext"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Plaintext)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&ciphertext, "ciphertext", "", "Comma-separated ciphertext values (required)")
	cmd.Flags().UintVar(&generation, "generation", 0, "Key generation (optional, defaults to current)")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("ciphertext")
	return cmd
}

// splitCiphertext は "222,116" 形式を値の列に分割する。
func splitCiphertext(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if err := validateDecimal("ciphertext", p); err != nil {
			return nil, err
		}
		values = append(values, p)
	}
	return values, nil
}
