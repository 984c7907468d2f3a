package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"episim/internal/advisor"
	"episim/internal/api"
	"episim/internal/config"
	"episim/internal/core"
	"episim/internal/db"
	"episim/internal/explorer"
	"episim/internal/ledger"
	"episim/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "episim",
		Short:        "Epidemic simulation backend: mock agent ledger, funding simulations, AI advisors",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Seed the mock ledger, run one transfer and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return demo(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	})
	return root
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := core.NewMetrics(reg)

	archive, err := newArchive(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	mock := ledger.NewMockLedger(
		ledger.WithConfirmDelay(cfg.Ledger.ConfirmDelay),
		ledger.WithLogger(log.Named("ledger")),
		ledger.WithMetrics(metrics),
		ledger.WithArchive(archive),
	)
	defer mock.Close()

	transferer, closeTransferer, err := newTransferer(cfg.Ledger, mock)
	if err != nil {
		return err
	}
	defer closeTransferer()

	store, closeStore, err := newStore(cfg.DB)
	if err != nil {
		return err
	}
	defer closeStore()

	var generator advisor.Generator = advisor.Unconfigured{}
	if cfg.GenAI.APIKey != "" {
		g, err := advisor.NewGeminiGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
		if err != nil {
			return err
		}
		generator = g
	} else {
		log.Warn("GEMINI_API_KEY not set; text generation will fail")
	}

	deps := api.Deps{
		Ledger:    mock,
		Funding:   core.NewFundingService(transferer, store, archive, metrics, log.Named("funding")),
		Generator: generator,
		Explorer:  explorer.NewClient(cfg.Explorer.BaseURL, cfg.Explorer.ProjectID, nil),
		Gatherer:  reg,
		Logger:    log.Named("api"),
	}
	if r, ok := transferer.(api.TransactionReader); ok {
		deps.Receipts = r
	}
	srv := api.NewServer(deps)
	log.Info("starting episim",
		zap.String("ledger_backend", cfg.Ledger.Backend),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("storage_driver", cfg.Storage.Driver))
	return srv.Run(ctx, cfg.Server.Addr)
}

// newArchive returns a nil ObjectStorage for the "none" driver.
func newArchive(ctx context.Context, cfg config.StorageConfig) (core.ObjectStorage, error) {
	switch cfg.Driver {
	case "minio":
		return storage.NewMinioStorage(ctx, cfg.Minio)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, nil
	}
}

func newTransferer(cfg config.LedgerConfig, mock *ledger.MockLedger) (core.Transferer, func(), error) {
	switch cfg.Backend {
	case "masumi":
		return ledger.NewMasumiClient(cfg.Masumi.URL, cfg.Masumi.APIKey, nil), func() {}, nil
	case "fabric":
		f, err := ledger.NewFabricLedger(cfg.Fabric)
		if err != nil {
			return nil, nil, fmt.Errorf("fabric ledger: %w", err)
		}
		return f, f.Close, nil
	default:
		return mock, func() {}, nil
	}
}

func newStore(cfg config.DBConfig) (core.SimulationStore, func(), error) {
	if cfg.Driver != "postgres" {
		return db.NewMemoryDB(), func() {}, nil
	}
	pg, err := db.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() { _ = pg.Close() }, nil
}

func demo(ctx context.Context, cfg config.Config, out io.Writer) error {
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	mock := ledger.NewMockLedger(
		ledger.WithConfirmDelay(cfg.Ledger.ConfirmDelay),
		ledger.WithLogger(log.Named("ledger")),
	)
	defer mock.Close()

	gov, _ := mock.WalletByRole(string(core.RoleGovernment))
	hospital, _ := mock.WalletByRole(string(core.RoleHospital))

	tx, conf, err := mock.TransferFunds(gov.Address, hospital.Address, 75000, "Medical equipment procurement")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted %s (%s), fee %.0f\n", tx.Hash, tx.Status, tx.Fee)

	confirmed, err := conf.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Confirmed at block %d: %s\n", confirmed.BlockHeight, confirmed.Status)
	for _, w := range mock.Wallets() {
		fmt.Fprintf(out, "  %-10s %s  %.0f\n", w.Role, w.Address, w.Balance)
	}
	return nil
}
