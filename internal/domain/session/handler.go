package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trainingdesk/internal/domain/ledger"
	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/scheduling"
	"trainingdesk/internal/domain/subscription"
	"trainingdesk/internal/pkg/response"
	"trainingdesk/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	sess, cmd, err := h.service.CreateSession(c.Request.Context(), req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, SessionResponse{Session: sess, Command: cmd})
}

func (h *Handler) GetSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) TransitionSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	var opts []TransitionOption
	if req.TrainerID != nil {
		opts = append(opts, WithTrainer(*req.TrainerID))
	}

	sess, cmd, err := h.service.TransitionSession(c.Request.Context(), id, Status(req.Status), opts...)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, SessionResponse{Session: sess, Command: cmd})
}

func (h *Handler) RescheduleSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	sess, cmd, err := h.service.RescheduleSession(c.Request.Context(), id, RescheduleInput{
		MachineID:      req.MachineID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, SessionResponse{Session: sess, Command: cmd})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cmd, err := h.service.DeleteSession(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"command": cmd})
}

func (h *Handler) MachineDay(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	view, err := h.service.MachineDay(c.Request.Context(), id, day)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) AssignContractualCredits(c *gin.Context) {
	subscriptionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	cmds, err := h.service.AssignContractualCredits(c.Request.Context(), req.MemberID, subscriptionID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, AssignCreditsResponse{Assigned: len(cmds), Commands: cmds})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	var (
		verr     *ValidationError
		conflict *scheduling.SlotConflictError
	)

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), gin.H{verr.Field: verr.Message})
	case errors.Is(err, scheduling.ErrInvalidWindow), errors.Is(err, member.ErrInvalidEmail):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())

	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	case errors.Is(err, machine.ErrNotFound):
		response.Error(c, http.StatusNotFound, "MACHINE_NOT_FOUND", "Machine not found")
	case errors.Is(err, member.ErrNotFound):
		response.Error(c, http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found")
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		response.Error(c, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "Subscription not found")

	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, "SLOT_CONFLICT", "Machine is already booked for the selected time",
			gin.H{"machine_id": conflict.MachineID, "conflicts": conflict.Conflicts})
	case errors.Is(err, scheduling.ErrMachineUnavailable):
		response.Error(c, http.StatusConflict, "MACHINE_UNAVAILABLE", "Machine is not available for booking")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrDuplicateTrialMember):
		response.Error(c, http.StatusConflict, "DUPLICATE_TRIAL_MEMBER", "This email already has session history")

	case errors.Is(err, ledger.ErrNoRemainingCredits):
		response.Error(c, http.StatusUnprocessableEntity, "NO_REMAINING_CREDITS", "Subscription has no remaining sessions")
	case errors.Is(err, ErrNoActiveSubscription):
		response.Error(c, http.StatusUnprocessableEntity, "NO_ACTIVE_SUBSCRIPTION", "Member has no active subscription")

	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
