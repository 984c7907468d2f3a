package ledger

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

type FabricConfig struct {
	MSPID        string `yaml:"msp_id"`
	CryptoPath   string `yaml:"crypto_path"`
	CertPath     string `yaml:"cert_path"`
	KeyDir       string `yaml:"key_dir"`
	TLSCertPath  string `yaml:"tls_cert_path"`
	PeerEndpoint string `yaml:"peer_endpoint"`
	GatewayPeer  string `yaml:"gateway_peer"`
	Channel      string `yaml:"channel"`
	Chaincode    string `yaml:"chaincode"`
}

// resolve fills the per-file paths from CryptoPath using the test-network layout.
func (c FabricConfig) resolve() FabricConfig {
	if c.CertPath == "" {
		c.CertPath = path.Join(c.CryptoPath, "users/User1@org1.example.com/msp/signcerts/cert.pem")
	}
	if c.KeyDir == "" {
		c.KeyDir = path.Join(c.CryptoPath, "users/User1@org1.example.com/msp/keystore")
	}
	if c.TLSCertPath == "" {
		c.TLSCertPath = path.Join(c.CryptoPath, "peers/peer0.org1.example.com/tls/ca.crt")
	}
	return c
}

// FabricLedger settles transfers through a chaincode on a Hyperledger Fabric network.
type FabricLedger struct {
	clientConnection *grpc.ClientConn
	gateway          *client.Gateway
	contract         *client.Contract
}

func NewFabricLedger(cfg FabricConfig) (*FabricLedger, error) {
	cfg = cfg.resolve()
	if _, err := os.Stat(cfg.CryptoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("crypto path does not exist: %s", cfg.CryptoPath)
	}

	cert, err := loadCertificate(cfg.CertPath)
	if err != nil {
		return nil, err
	}
	key, err := loadPrivateKey(cfg.KeyDir)
	if err != nil {
		return nil, err
	}

	id, err := identity.NewX509Identity(cfg.MSPID, cert)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	transportCreds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, cfg.GatewayPeer)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(cfg.PeerEndpoint, grpc.WithTransportCredentials(transportCreds))
	if err != nil {
		return nil, err
	}

	gateway, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(5*time.Second),
		client.WithEndorseTimeout(15*time.Second),
		client.WithSubmitTimeout(5*time.Second),
		client.WithCommitStatusTimeout(1*time.Minute),
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &FabricLedger{
		clientConnection: conn,
		gateway:          gateway,
		contract:         gateway.GetNetwork(cfg.Channel).GetContract(cfg.Chaincode),
	}, nil
}

// Transfer endorses and submits TransferFunds, then blocks until the peer reports the
// commit status. It returns the Fabric transaction ID.
func (f *FabricLedger) Transfer(ctx context.Context, from, to string, amount float64) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	proposal, err := f.contract.NewProposal("TransferFunds",
		client.WithArguments(from, to, strconv.FormatFloat(amount, 'f', -1, 64)))
	if err != nil {
		return "", fmt.Errorf("failed to create proposal: %w", err)
	}

	transaction, err := proposal.EndorseWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to endorse: %w", err)
	}
	commit, err := transaction.SubmitWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to submit: %w", err)
	}
	status, err := commit.StatusWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get commit status: %w", err)
	}
	if !status.Successful {
		return "", fmt.Errorf("transaction failed with status code: %d", status.Code)
	}
	return transaction.TransactionID(), nil
}

// Read evaluates ReadTransfer for a transaction ID. Evaluation does not create a block.
func (f *FabricLedger) Read(ctx context.Context, txID string) (string, error) {
	result, err := f.contract.EvaluateWithContext(ctx, "ReadTransfer", client.WithArguments(txID))
	if err != nil {
		return "", fmt.Errorf("failed to read transfer: %w", err)
	}
	return string(result), nil
}

func (f *FabricLedger) Close() {
	f.gateway.Close()
	f.clientConnection.Close()
}

func loadCertificate(filename string) (*x509.Certificate, error) {
	certificatePEM, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	return identity.CertificateFromPEM(certificatePEM)
}

func loadPrivateKey(dir string) (any, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("key directory is empty")
	}
	privateKeyPEM, err := os.ReadFile(path.Join(dir, files[0].Name()))
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return identity.PrivateKeyFromPEM(privateKeyPEM)
}
