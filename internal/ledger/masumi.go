package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultMasumiURL = "https://api.masumi.network/testnet"

var ErrTransferRejected = errors.New("ledger: transfer rejected by payment network")

// MasumiClient forwards transfers to the payment network's HTTP transfer endpoint.
type MasumiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewMasumiClient(baseURL, apiKey string, httpClient *http.Client) *MasumiClient {
	if baseURL == "" {
		baseURL = DefaultMasumiURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &MasumiClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

type masumiTransferRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type masumiTransferResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error,omitempty"`
}

// Transfer succeeds only on a 2xx response carrying a non-empty txHash.
func (c *MasumiClient) Transfer(ctx context.Context, from, to string, amount float64) (string, error) {
	body, err := json.Marshal(masumiTransferRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("masumi transfer: %w", err)
	}
	defer resp.Body.Close()

	var out masumiTransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("masumi transfer: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.TxHash == "" {
		return "", fmt.Errorf("%w: status %d %s", ErrTransferRejected, resp.StatusCode, out.Error)
	}
	return out.TxHash, nil
}
