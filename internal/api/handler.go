package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/apperror"
	"github.com/spigell/assessment-recommender/internal/recommend"
)

const welcomeMessage = "Welcome to SHL Assessment Recommendation System"

// Recommender is the pipeline behind POST /recommend.
type Recommender interface {
	NewQuery(text string, maxResults, maxDuration *int) (recommend.Query, error)
	Recommend(ctx context.Context, q recommend.Query) (*recommend.Result, error)
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	Text        string `json:"text"`
	MaxResults  *int   `json:"max_results"`
	MaxDuration *int   `json:"max_duration"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Handler handles API requests
type Handler struct {
	recommender Recommender
	logger      *zap.Logger
}

func NewHandler(recommender Recommender, logger *zap.Logger) *Handler {
	return &Handler{recommender: recommender, logger: logger}
}

// Root answers GET / with a welcome message.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

// HealthCheck provides a simple health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Recommend answers POST /recommend.
func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, apperror.Validation("Invalid request body: "+err.Error()))
		return
	}

	q, err := h.recommender.NewQuery(req.Text, req.MaxResults, req.MaxDuration)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := h.recommender.Recommend(c.Request.Context(), q)
	if err != nil {
		h.logger.Debug("recommendation failed",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err),
		)
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func abortWithError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperror.HTTPStatus(appErr.Kind), ErrorResponse{Detail: appErr.Message})
}
