package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"episim/internal/core"
	"episim/internal/ledger"
)

func (s *Server) listWallets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wallets": s.ledger.Wallets()})
}

func (s *Server) getWallet(c *gin.Context) {
	w, ok := s.ledger.Wallet(c.Param("address"))
	if !ok {
		errorJSON(c, http.StatusNotFound, ledger.ErrWalletNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, w)
}

// getBalance reports 0 for unknown addresses instead of 404.
func (s *Server) getBalance(c *gin.Context) {
	address := c.Param("address")
	c.JSON(http.StatusOK, gin.H{"address": address, "balance": s.ledger.AgentBalance(address)})
}

func (s *Server) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": s.ledger.TransactionHistory(c.Param("address"))})
}

// getWalletInfo falls back to the chain explorer for addresses outside the registry.
func (s *Server) getWalletInfo(c *gin.Context) {
	address := c.Param("address")
	if info, ok := s.ledger.WalletInfo(address); ok {
		c.JSON(http.StatusOK, info)
		return
	}
	info, err := s.chainWalletInfo(c, address)
	if err != nil {
		s.log.Debug("explorer wallet info lookup failed", zap.String("address", address), zap.Error(err))
		errorJSON(c, http.StatusNotFound, ledger.ErrWalletNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) chainWalletInfo(c *gin.Context, address string) (core.WalletInfo, error) {
	if s.explorer == nil {
		return core.WalletInfo{}, ledger.ErrWalletNotFound
	}
	ctx := c.Request.Context()
	addr, err := s.explorer.Address(ctx, address)
	if err != nil {
		return core.WalletInfo{}, err
	}
	lovelace, err := strconv.ParseFloat(addr.Lovelace(), 64)
	if err != nil {
		return core.WalletInfo{}, err
	}
	info := core.WalletInfo{
		Address:      address,
		Balance:      lovelace / 1e6,
		LastActivity: time.Now().UTC(),
	}
	txs, err := s.explorer.AddressTransactions(ctx, address)
	if err != nil {
		s.log.Warn("explorer address transactions lookup failed", zap.String("address", address), zap.Error(err))
		return info, nil
	}
	info.TransactionCount = len(txs)
	if n := len(txs); n > 0 && txs[n-1].BlockTime > 0 {
		info.LastActivity = time.Unix(txs[n-1].BlockTime, 0).UTC()
	}
	return info, nil
}

func (s *Server) getAuditTrail(c *gin.Context) {
	trail, err := s.ledger.AuditTrail(c.Param("address"))
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.log.Error("build audit trail", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, trail)
}

func (s *Server) getWalletByRole(c *gin.Context) {
	w, ok := s.ledger.WalletByRole(c.Param("role"))
	if !ok {
		errorJSON(c, http.StatusNotFound, "no wallet for role")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (s *Server) registerAgent(c *gin.Context) {
	var cfg ledger.AgentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if cfg.InitialFunding < 0 {
		errorJSON(c, http.StatusBadRequest, "initialFunding must not be negative")
		return
	}
	c.JSON(http.StatusCreated, s.ledger.RegisterAgent(cfg))
}

type transferRequest struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose"`
}

// transfer answers 202 with the pending transaction, or with ?wait=true holds the request
// until the confirmation resolves and answers 200.
func (s *Server) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, conf, err := s.ledger.TransferFunds(req.From, req.To, req.Amount, req.Purpose)
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ledger.ErrInsufficientFunds):
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, ledger.ErrRegistryClosed):
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.log.Error("transfer failed", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		c.JSON(http.StatusAccepted, tx)
		return
	}
	confirmed, err := conf.Wait(c.Request.Context())
	if err != nil {
		errorJSON(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, confirmed)
}

// getTransaction checks the registry first, then the configured external ledger.
func (s *Server) getTransaction(c *gin.Context) {
	hash := c.Param("hash")
	if tx, ok := s.ledger.Transaction(hash); ok {
		c.JSON(http.StatusOK, tx)
		return
	}
	if s.receipts != nil {
		record, err := s.receipts.Read(c.Request.Context(), hash)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"transactionId": hash, "record": record})
			return
		}
		s.log.Debug("external transaction lookup failed", zap.String("hash", hash), zap.Error(err))
	}
	errorJSON(c, http.StatusNotFound, "transaction not found")
}

type decisionRequest struct {
	AgentID  string         `json:"agentId"`
	Decision string         `json:"decision"`
	Impact   map[string]any `json:"impact"`
}

func (s *Server) logDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" || req.Decision == "" {
		errorJSON(c, http.StatusBadRequest, "agentId and decision are required")
		return
	}
	d, err := s.ledger.LogDecision(c.Request.Context(), req.AgentID, req.Decision, req.Impact)
	if err != nil {
		s.log.Error("log decision", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Decision logging failed")
		return
	}
	c.JSON(http.StatusCreated, d)
}
