package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LedgerClient submits an evidence hash to an external append-only ledger
// endpoint and returns the resulting transaction hash. The ledger is trusted
// to dedupe by hash, so repeat submissions are idempotent.
type LedgerClient struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

func NewLedgerClient(url, apiKey string, httpClient *http.Client) *LedgerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	return &LedgerClient{URL: url, APIKey: apiKey, HTTPClient: httpClient}
}

func (c *LedgerClient) Configured() bool { return c != nil && c.URL != "" }

func (c *LedgerClient) Submit(ctx context.Context, evidenceHash string) (string, error) {
	payload, err := json.Marshal(map[string]string{"hash": evidenceHash})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ledger_http_status_%d", resp.StatusCode)
	}

	var out struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("ledger_bad_response: %w", err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("ledger_empty_tx_hash")
	}
	return out.TxHash, nil
}
