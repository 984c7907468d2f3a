package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"episim/internal/core"
)

type simulateResponse struct {
	Success      bool   `json:"success"`
	SimulationID string `json:"simulationId,omitempty"`
	TxHash       string `json:"txHash,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) simulateFunding(c *gin.Context) {
	var req core.FundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, simulateResponse{Error: "invalid request body"})
		return
	}

	sim, err := s.funding.Simulate(c.Request.Context(), req)
	switch {
	case errors.Is(err, core.ErrValidation):
		c.JSON(http.StatusBadRequest, simulateResponse{Error: err.Error()})
		return
	case err != nil:
		s.log.Error("funding simulation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, simulateResponse{Error: "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, simulateResponse{
		Success:      true,
		SimulationID: sim.ID,
		TxHash:       sim.TransactionHash,
	})
}

func (s *Server) getSimulation(c *gin.Context) {
	sim, err := s.funding.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, core.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "simulation not found")
		return
	case err != nil:
		s.log.Error("load funding simulation", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, sim)
}
