package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"episim/internal/db"
	"episim/internal/ledger"
	"episim/internal/storage"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Storage  StorageConfig  `yaml:"storage"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Explorer ExplorerConfig `yaml:"explorer"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DBConfig selects the funding simulation store: "memory" or "postgres".
type DBConfig struct {
	Driver   string            `yaml:"driver"`
	Postgres db.PostgresConfig `yaml:"postgres"`
}

// StorageConfig selects the archive: "none", "memory" or "minio".
type StorageConfig struct {
	Driver string              `yaml:"driver"`
	Minio  storage.MinioConfig `yaml:"minio"`
}

// LedgerConfig selects where funding simulations settle: "mock", "masumi" or "fabric".
type LedgerConfig struct {
	Backend      string              `yaml:"backend"`
	ConfirmDelay time.Duration       `yaml:"confirm_delay"`
	Masumi       MasumiConfig        `yaml:"masumi"`
	Fabric       ledger.FabricConfig `yaml:"fabric"`
}

type MasumiConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ExplorerConfig struct {
	BaseURL   string `yaml:"base_url"`
	ProjectID string `yaml:"project_id"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":4000"},
		Log:    LogConfig{Level: "info"},
		DB: DBConfig{
			Driver: "memory",
			Postgres: db.PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "postgres",
				Name:     "episim",
				SSLMode:  "disable",
			},
		},
		Storage: StorageConfig{
			Driver: "none",
			Minio: storage.MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "episim-archive",
			},
		},
		Ledger: LedgerConfig{
			Backend:      "mock",
			ConfirmDelay: ledger.DefaultConfirmDelay,
			Masumi:       MasumiConfig{URL: ledger.DefaultMasumiURL},
			Fabric: ledger.FabricConfig{
				MSPID:        "Org1MSP",
				PeerEndpoint: "localhost:7051",
				GatewayPeer:  "peer0.org1.example.com",
				Channel:      "mychannel",
				Chaincode:    "funding",
			},
		},
		GenAI: GenAIConfig{Model: "gemini-2.0-flash-exp"},
	}
}

// Load applies defaults, then the YAML file at path (if path is not empty), then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DB.Driver)
	}
	switch c.Storage.Driver {
	case "none", "memory", "minio":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Ledger.Backend {
	case "mock", "masumi", "fabric":
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Ledger.ConfirmDelay < 0 {
		return fmt.Errorf("config: negative ledger confirm delay")
	}
	return nil
}

func applyEnv(c *Config) error {
	if port, ok := os.LookupEnv("PORT"); ok {
		c.Server.Addr = ":" + port
	}
	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.DB.Driver, "DB_DRIVER")
	setString(&c.DB.Postgres.Host, "DB_HOST")
	setString(&c.DB.Postgres.Port, "DB_PORT")
	setString(&c.DB.Postgres.User, "DB_USER")
	setString(&c.DB.Postgres.Password, "DB_PASSWORD")
	setString(&c.DB.Postgres.Name, "DB_NAME")
	setString(&c.DB.Postgres.SSLMode, "DB_SSLMODE")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.Minio.Bucket, "MINIO_BUCKET")
	if v, ok := os.LookupEnv("MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: MINIO_USE_SSL: %w", err)
		}
		c.Storage.Minio.UseSSL = b
	}

	setString(&c.Ledger.Backend, "LEDGER_BACKEND")
	if v, ok := os.LookupEnv("LEDGER_CONFIRM_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: LEDGER_CONFIRM_DELAY: %w", err)
		}
		c.Ledger.ConfirmDelay = d
	}
	setString(&c.Ledger.Masumi.URL, "MASUMI_API_URL")
	setString(&c.Ledger.Masumi.APIKey, "MASUMI_API_KEY")
	setString(&c.Ledger.Fabric.MSPID, "FABRIC_MSP_ID")
	setString(&c.Ledger.Fabric.CryptoPath, "FABRIC_CRYPTO_PATH")
	setString(&c.Ledger.Fabric.PeerEndpoint, "FABRIC_PEER_ENDPOINT")
	setString(&c.Ledger.Fabric.GatewayPeer, "FABRIC_GATEWAY_PEER")
	setString(&c.Ledger.Fabric.Channel, "FABRIC_CHANNEL")
	setString(&c.Ledger.Fabric.Chaincode, "FABRIC_CHAINCODE")

	setString(&c.GenAI.APIKey, "GEMINI_API_KEY")
	setString(&c.GenAI.Model, "GEMINI_MODEL")
	setString(&c.Explorer.BaseURL, "BLOCKFROST_URL")
	setString(&c.Explorer.ProjectID, "BLOCKFROST_PROJECT_ID")
	return nil
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*dst = value
	}
}
