package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"episim/internal/explorer"
)

// latestBlock degrades to a null block when the explorer is unreachable.
func (s *Server) latestBlock(c *gin.Context) {
	var block *explorer.Block
	if s.explorer != nil {
		b, err := s.explorer.LatestBlock(c.Request.Context())
		if err != nil {
			s.log.Warn("explorer latest block lookup failed", zap.Error(err))
		} else {
			block = b
		}
	}
	c.JSON(http.StatusOK, gin.H{"block": block})
}

func (s *Server) lookupAddress(c *gin.Context) {
	var addr *explorer.Address
	if s.explorer != nil {
		a, err := s.explorer.Address(c.Request.Context(), c.Param("address"))
		if err != nil {
			s.log.Warn("explorer address lookup failed", zap.String("address", c.Param("address")), zap.Error(err))
		} else {
			addr = a
		}
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}
