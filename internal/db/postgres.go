package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"episim/internal/core"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, sslMode)
}

// PostgresDB stores funding simulations in the funding_simulations table.
type PostgresDB struct {
	db *gorm.DB
}

// NewPostgresDB connects and migrates the schema.
func NewPostgresDB(cfg PostgresConfig) (*PostgresDB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(&core.FundingSimulation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PostgresDB{db: database}, nil
}

func (p *PostgresDB) Create(ctx context.Context, sim *core.FundingSimulation) error {
	return p.db.WithContext(ctx).Create(sim).Error
}

func (p *PostgresDB) Update(ctx context.Context, sim *core.FundingSimulation) error {
	result := p.db.WithContext(ctx).Model(sim).Updates(map[string]any{
		"status":           sim.Status,
		"transaction_hash": sim.TransactionHash,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (p *PostgresDB) Get(ctx context.Context, id string) (*core.FundingSimulation, error) {
	var sim core.FundingSimulation
	err := p.db.WithContext(ctx).First(&sim, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sim, nil
}

func (p *PostgresDB) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
