package core

import (
	"context"
	"io"
	"time"
)

// Role labels the stakeholder a wallet stands in for.
type Role string

const (
	RoleGovernment Role = "government"
	RoleNGO        Role = "ngo"
	RoleHospital   Role = "hospital"
	RoleResearcher Role = "researcher"
	RolePolicy     Role = "policy"
	RoleLogistics  Role = "logistics"
)

// Known reports whether r is one of the fixed roles. Registration accepts any string.
func (r Role) Known() bool {
	switch r {
	case RoleGovernment, RoleNGO, RoleHospital, RoleResearcher, RolePolicy, RoleLogistics:
		return true
	}
	return false
}

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction is a synthetic ledger record. Hash, BlockHash and BlockHeight are random
// test identifiers; they do not correspond to any real chain state.
type Transaction struct {
	ID          string    `json:"id"`
	Hash        string    `json:"txHash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Amount      float64   `json:"amount"`
	Fee         float64   `json:"fees"`
	Purpose     string    `json:"purpose"`
	Timestamp   time.Time `json:"timestamp"`
	Status      TxStatus  `json:"status"`
	BlockHash   string    `json:"blockHash"`
	BlockHeight int64     `json:"blockHeight"`
}

// Wallet is a role-labeled, balance-holding agent record.
// The key pair is cosmetic and is never used for signing.
type Wallet struct {
	ID           string        `json:"id"`
	DID          string        `json:"did"`
	Address      string        `json:"walletAddress"`
	Role         Role          `json:"role"`
	Name         string        `json:"name"`
	Permissions  []string      `json:"permissions"`
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	PublicKey    string        `json:"publicKey"`
	PrivateKey   string        `json:"-"`
}

type WalletInfo struct {
	Address          string    `json:"address"`
	Balance          float64   `json:"balance"`
	Role             Role      `json:"role"`
	DID              string    `json:"did"`
	TransactionCount int       `json:"transactionCount"`
	LastActivity     time.Time `json:"lastActivity"`
}

// Decision is an agent decision recorded against the ledger.
type Decision struct {
	AgentID   string         `json:"agentId"`
	Decision  string         `json:"decision"`
	Impact    map[string]any `json:"impact,omitempty"`
	LogHash   string         `json:"logHash"`
	Timestamp time.Time      `json:"timestamp"`
}

type ObjectStorage interface {
	Upload(ctx context.Context, name string, data io.Reader, size int64, contentType string) (path string, err error)
}

// Transferer moves funds on some ledger backend and returns its transaction hash.
type Transferer interface {
	Transfer(ctx context.Context, from, to string, amount float64) (txHash string, err error)
}
