package handlers

import (
	"net/http"
	"time"

	"bodima/biometric"
	"bodima/models"
	"bodima/services/reservation"
	"bodima/services/support"
	"bodima/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// FlowHandler exposes the booking flow over HTTP.
type FlowHandler struct {
	Svc       reservation.FlowService
	Incidents *support.IncidentLog
	Logger    *zap.Logger
}

func NewFlowHandler(svc reservation.FlowService, incidents *support.IncidentLog, logger *zap.Logger) *FlowHandler {
	return &FlowHandler{Svc: svc, Incidents: incidents, Logger: logger}
}

type startDraftRequest struct {
	Habitation models.HabitationRef    `json:"habitation" binding:"required"`
	Location   models.LocationSnapshot `json:"location"`
	Features   models.FeatureSnapshot  `json:"features"`
}

type datesRequest struct {
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
}

type paymentMethodRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required"`
}

// StartDraft begins a booking attempt for the authenticated session.
func (h *FlowHandler) StartDraft(c *gin.Context) {
	var input startDraftRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Svc.Start(c.Request.Context(), sessionID(c), input.Habitation, input.Location, input.Features)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// UpdateDates replaces the draft's stay window.
func (h *FlowHandler) UpdateDates(c *gin.Context) {
	var input datesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	checkIn, err := time.Parse(dateLayout, input.CheckIn)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check-in date", err.Error())
		return
	}
	checkOut, err := time.Parse(dateLayout, input.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check-out date", err.Error())
		return
	}

	draft, err := h.Svc.SetDates(c.Request.Context(), sessionID(c), checkIn, checkOut)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// UpdatePaymentMethod replaces the draft's selected payment method.
func (h *FlowHandler) UpdatePaymentMethod(c *gin.Context) {
	var input paymentMethodRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Svc.SetPaymentMethod(c.Request.Context(), sessionID(c), input.Method)
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// GetDraft returns the session's in-flight draft with its current quote.
func (h *FlowHandler) GetDraft(c *gin.Context) {
	draft, err := h.Svc.Draft(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"draft": draft,
		"total": reservation.QuoteTotal(draft),
	})
}

// ValidateDraft surfaces the draft's current verdict so the UI can warn
// while the user edits. The same check runs authoritatively inside finalize.
func (h *FlowHandler) ValidateDraft(c *gin.Context) {
	err := h.Svc.Validate(c.Request.Context(), sessionID(c))
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}
	if fe, ok := reservation.AsFlowError(err); ok {
		c.JSON(http.StatusOK, gin.H{"valid": false, "code": fe.Code, "message": fe.Message})
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "validation failed", err.Error())
}

// FinalizeDraft runs the booking saga. The device's biometric assertion
// arrives in a header and travels to the gate via the request context.
func (h *FlowHandler) FinalizeDraft(c *gin.Context) {
	ctx := c.Request.Context()
	if assertion := c.GetHeader("X-Biometric-Assertion"); assertion != "" {
		ctx = biometric.WithAssertion(ctx, assertion)
	}

	receipt, err := h.Svc.Finalize(ctx, sessionID(c))
	if err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reservation": receipt})
}

// CancelDraft discards the session's draft.
func (h *FlowHandler) CancelDraft(c *gin.Context) {
	if err := h.Svc.Cancel(c.Request.Context(), sessionID(c)); err != nil {
		h.respondFlowError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIncidents returns confirmation incidents for support follow-up.
func (h *FlowHandler) ListIncidents(c *gin.Context) {
	incidents, err := h.Incidents.List(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read incidents", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents})
}

func (h *FlowHandler) respondFlowError(c *gin.Context, err error) {
	fe, ok := reservation.AsFlowError(err)
	if !ok {
		h.Logger.Error("unclassified flow error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "booking failed"})
		return
	}
	c.JSON(statusForCode(fe.Code), gin.H{"success": false, "code": fe.Code, "message": fe.Message})
}

func statusForCode(code string) int {
	switch code {
	case reservation.CodeDateOrderInvalid,
		reservation.CodeDateInPast,
		reservation.CodeStayTooShort,
		reservation.CodePaymentMethodMissing:
		return http.StatusUnprocessableEntity
	case reservation.CodeNoDraft:
		return http.StatusNotFound
	case reservation.CodeUserUnresolved:
		return http.StatusUnauthorized
	case reservation.CodeAuthenticationFailed:
		return http.StatusForbidden
	case reservation.CodeRemoteFailure, reservation.CodeConfirmationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sessionID(c *gin.Context) string {
	id, _ := c.Get("sessionID")
	s, _ := id.(string)
	return s
}
