package subscription

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subscriptions/:id", h.GetBalance)
	rg.GET("/members/:id/subscription", h.GetActiveForMember)
}
