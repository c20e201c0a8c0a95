package machine

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainingdesk/internal/pkg/response"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/machines", h.List)
}

func (h *Handler) List(c *gin.Context) {
	machines, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load machines")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"machines": machines})
}
