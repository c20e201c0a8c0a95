package session

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PATCH("/:id/status", h.TransitionSession)
		sessions.PATCH("/:id/schedule", h.RescheduleSession)
		sessions.DELETE("/:id", h.DeleteSession)
	}

	rg.GET("/machines/:id/day", h.MachineDay)
	rg.POST("/subscriptions/:id/contractual-credits", h.AssignContractualCredits)
}
