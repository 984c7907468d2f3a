package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"episim/internal/advisor"
)

type generateTextRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

func (s *Server) generateText(c *gin.Context) {
	var req generateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		errorJSON(c, http.StatusBadRequest, "Prompt is required")
		return
	}

	text, err := s.generator.Generate(c.Request.Context(), req.Prompt, req.Model)
	if err != nil {
		s.writeGenerateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

type advisorRequest struct {
	Data advisor.PromptData `json:"data"`
}

func (s *Server) askAdvisor(c *gin.Context) {
	var req advisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, text, err := advisor.Ask(c.Request.Context(), s.generator, advisor.Kind(c.Param("kind")), req.Data)
	if errors.Is(err, advisor.ErrUnknownKind) {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeGenerateError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": prompt, "text": text})
}

func (s *Server) writeGenerateError(c *gin.Context, err error) {
	if errors.Is(err, advisor.ErrMissingAPIKey) {
		errorJSON(c, http.StatusInternalServerError, "Gemini API key not configured")
		return
	}
	s.log.Error("text generation failed", zap.Error(err))
	errorJSON(c, http.StatusInternalServerError, "Failed to generate response")
}
