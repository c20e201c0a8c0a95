package subscription

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trainingdesk/internal/pkg/response"
)

// Handler exposes read-only credit balances to the desk.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetBalance returns one subscription with its remaining sessions.
//
// GET /subscriptions/:id
func (h *Handler) GetBalance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid subscription ID")
		return
	}

	sub, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Subscription not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load subscription")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subscription": toBalanceResponse(sub)})
}

// GetActiveForMember returns the member's subscription active today, if any.
//
// GET /members/:id/subscription
func (h *Handler) GetActiveForMember(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || memberID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid member ID")
		return
	}

	sub, err := h.repo.GetActiveForMember(c.Request.Context(), memberID, time.Now())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load subscription")
		return
	}
	if sub == nil {
		response.Error(c, http.StatusNotFound, "NO_ACTIVE_SUBSCRIPTION", "Member has no active subscription")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subscription": toBalanceResponse(sub)})
}
