package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"episim/internal/advisor"
	"episim/internal/core"
	"episim/internal/explorer"
	"episim/internal/ledger"
)

// Explorer is the read side of the chain explorer. Lookups are best-effort.
type Explorer interface {
	LatestBlock(ctx context.Context) (*explorer.Block, error)
	Address(ctx context.Context, address string) (*explorer.Address, error)
	AddressTransactions(ctx context.Context, address string) ([]explorer.AddressTransaction, error)
}

// TransactionReader reads settled transfers back from an external ledger backend.
type TransactionReader interface {
	Read(ctx context.Context, txID string) (string, error)
}

type Deps struct {
	Ledger    *ledger.MockLedger
	Funding   *core.FundingService
	Generator advisor.Generator
	Explorer  Explorer
	Receipts  TransactionReader
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

type Server struct {
	ledger    *ledger.MockLedger
	funding   *core.FundingService
	generator advisor.Generator
	explorer  Explorer
	receipts  TransactionReader
	log       *zap.Logger
	router    *gin.Engine
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Generator == nil {
		d.Generator = advisor.Unconfigured{}
	}
	s := &Server{
		ledger:    d.Ledger,
		funding:   d.Funding,
		generator: d.Generator,
		explorer:  d.Explorer,
		receipts:  d.Receipts,
		log:       d.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.POST("/generate-text", s.generateText)
	api.POST("/advisors/:kind", s.askAdvisor)

	api.POST("/funding/simulate", s.simulateFunding)
	api.GET("/funding/simulations/:id", s.getSimulation)

	api.GET("/wallets", s.listWallets)
	api.GET("/wallets/:address", s.getWallet)
	api.GET("/wallets/:address/balance", s.getBalance)
	api.GET("/wallets/:address/transactions", s.getHistory)
	api.GET("/wallets/:address/info", s.getWalletInfo)
	api.GET("/wallets/:address/audit", s.getAuditTrail)
	api.GET("/roles/:role/wallet", s.getWalletByRole)
	api.POST("/agents", s.registerAgent)
	api.POST("/transfers", s.transfer)
	api.GET("/transactions/:hash", s.getTransaction)
	api.POST("/decisions", s.logDecision)

	api.GET("/explorer/blocks/latest", s.latestBlock)
	api.GET("/explorer/addresses/:address", s.lookupAddress)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
