package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// IPFSClient anchors an evidence hash to an IPFS node via its HTTP API.
type IPFSClient struct {
	APIURL     string
	HTTPClient *http.Client
}

func NewIPFSClient(apiURL string, httpClient *http.Client) *IPFSClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Second}
	}
	return &IPFSClient{APIURL: apiURL, HTTPClient: httpClient}
}

func (c *IPFSClient) Configured() bool { return c != nil && c.APIURL != "" }

// Add pins a small JSON document carrying the evidence hash and returns the
// CID. Content addressing makes the call idempotent: the same hash always
// maps to the same CID.
func (c *IPFSClient) Add(ctx context.Context, evidenceHash string) (string, error) {
	payload, err := json.Marshal(map[string]string{"evidence_hash": evidenceHash})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", evidenceHash+".json")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipfs_http_status_%d", resp.StatusCode)
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("ipfs_bad_response: %w", err)
	}
	if out.Hash == "" {
		return "", fmt.Errorf("ipfs_empty_cid")
	}
	return out.Hash, nil
}
