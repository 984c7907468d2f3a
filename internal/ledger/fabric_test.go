package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFabricConfigResolve(t *testing.T) {
	cfg := FabricConfig{CryptoPath: "/crypto"}.resolve()
	assert.Equal(t, "/crypto/users/User1@org1.example.com/msp/signcerts/cert.pem", cfg.CertPath)
	assert.Equal(t, "/crypto/users/User1@org1.example.com/msp/keystore", cfg.KeyDir)
	assert.Equal(t, "/crypto/peers/peer0.org1.example.com/tls/ca.crt", cfg.TLSCertPath)

	explicit := FabricConfig{CryptoPath: "/crypto", CertPath: "/elsewhere/cert.pem"}.resolve()
	assert.Equal(t, "/elsewhere/cert.pem", explicit.CertPath)
}

func TestNewFabricLedgerMissingCrypto(t *testing.T) {
	_, err := NewFabricLedger(FabricConfig{CryptoPath: t.TempDir() + "/missing"})
	require.ErrorContains(t, err, "crypto path does not exist")
}

func TestLoadPrivateKeyEmptyDir(t *testing.T) {
	_, err := loadPrivateKey(t.TempDir())
	require.ErrorContains(t, err, "key directory is empty")
}

func TestFabricTransferRejectsInvalidAmount(t *testing.T) {
	var f FabricLedger
	_, err := f.Transfer(context.Background(), "a", "b", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
