package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://cardano-preprod.blockfrost.io/api/v0"

// Client reads chain data from a Blockfrost-compatible explorer API.
type Client struct {
	baseURL   string
	projectID string
	http      *http.Client
}

func NewClient(baseURL, projectID string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), projectID: projectID, http: httpClient}
}

type Block struct {
	Hash          string `json:"hash"`
	Height        int64  `json:"height"`
	Slot          int64  `json:"slot"`
	Epoch         int64  `json:"epoch"`
	Time          int64  `json:"time"`
	TxCount       int    `json:"tx_count"`
	Confirmations int64  `json:"confirmations"`
}

type Amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type Address struct {
	Address string   `json:"address"`
	Amount  []Amount `json:"amount"`
	Type    string   `json:"type"`
	Script  bool     `json:"script"`
}

// Lovelace returns the ADA quantity of the address, or "0".
func (a Address) Lovelace() string {
	for _, amt := range a.Amount {
		if amt.Unit == "lovelace" {
			return amt.Quantity
		}
	}
	return "0"
}

type AddressTransaction struct {
	TxHash      string `json:"tx_hash"`
	TxIndex     int    `json:"tx_index"`
	BlockHeight int64  `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("explorer %s: status %d", e.Endpoint, e.StatusCode)
}

func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	var b Block
	if err := c.get(ctx, "/blocks/latest", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Address(ctx context.Context, address string) (*Address, error) {
	var a Address
	if err := c.get(ctx, "/addresses/"+url.PathEscape(address), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) AddressTransactions(ctx context.Context, address string) ([]AddressTransaction, error) {
	var txs []AddressTransaction
	if err := c.get(ctx, "/addresses/"+url.PathEscape(address)+"/transactions", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("project_id", c.projectID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("explorer %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("explorer %s: decode: %w", endpoint, err)
	}
	return nil
}
