package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"careline-service/internal/domain"
	"careline-service/internal/notify"
	"careline-service/internal/repositories"
	"careline-service/internal/telemetry"
)

// EmergencyHandler manages the emergency and alert endpoints.
type EmergencyHandler struct {
	chatRepo      repositories.ChatRepository
	emergencyRepo repositories.EmergencyRepository
	dispatcher    *notify.Dispatcher
	audit         *telemetry.AuditEmitter
}

// NewEmergencyHandler builds an EmergencyHandler.
func NewEmergencyHandler(chatRepo repositories.ChatRepository, emergencyRepo repositories.EmergencyRepository, dispatcher *notify.Dispatcher, audit *telemetry.AuditEmitter) *EmergencyHandler {
	return &EmergencyHandler{
		chatRepo:      chatRepo,
		emergencyRepo: emergencyRepo,
		dispatcher:    dispatcher,
		audit:         audit,
	}
}

// RaiseEmergency declares an emergency inside a chat. The authorized
// resolver set is frozen from the chat's participants at this moment.
func (h *EmergencyHandler) RaiseEmergency(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emergencyType := domain.EmergencyType(req.Type)
	if !domain.ValidEmergencyType(emergencyType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emergency type"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	emergency := domain.Emergency{
		Type:         emergencyType,
		MadeByUserID: userID,
		RaisedAt:     time.Now().UTC(),
	}
	if err := emergency.AttachToChat(&chat); err != nil {
		conflictJSON(c, err)
		return
	}

	stored, err := h.emergencyRepo.CreateEmergency(c.Request.Context(), emergency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store emergency"})
		return
	}

	h.emitAudit(c, "WARN", fmt.Sprintf("emergency raised type=%s", stored.Type), stored.ChatID, stored.ID)
	h.dispatcher.EmergencyStatusChanged(chat, stored.Status(domain.StatusRaised, userID))
	c.JSON(http.StatusCreated, stored)
}

// GetEmergency returns one emergency with its resolution progress.
func (h *EmergencyHandler) GetEmergency(c *gin.Context) {
	emergencyID, err := strconv.Atoi(c.Param("emergency_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emergency id"})
		return
	}

	emergency, err := h.emergencyRepo.GetEmergency(c.Request.Context(), emergencyID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrEmergencyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "emergency not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"emergency":      emergency,
		"resolved":       emergency.Resolved(),
		"resolved_count": len(emergency.HasResolved),
		"required_count": len(emergency.AllowedToResolve),
	})
}

// ResolveEmergency records a resolution vote by the authenticated
// supervisor. The vote row insert is a conflict-free set add, so two
// supervisors resolving concurrently both count; the losing side of a
// duplicate insert is reported as a conflict instead of double-counted.
func (h *EmergencyHandler) ResolveEmergency(c *gin.Context) {
	emergencyID, err := strconv.Atoi(c.Param("emergency_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emergency id"})
		return
	}

	supervisorID := c.GetInt("userID")
	emergency, err := h.emergencyRepo.GetEmergency(c.Request.Context(), emergencyID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrEmergencyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "emergency not found"})
		return
	}

	if err := emergency.Resolve(supervisorID); err != nil {
		conflictJSON(c, err)
		return
	}

	inserted, err := h.emergencyRepo.AddResolution(c.Request.Context(), emergencyID, supervisorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record resolution"})
		return
	}
	if !inserted {
		// Lost a race against our own retry: the vote is already in.
		conflictJSON(c, domain.NewConflict(domain.CodeDuplicateResolution, "supervisor has already resolved this emergency"))
		return
	}

	chat, err := h.chatRepo.GetChat(c.Request.Context(), emergency.ChatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}

	status := domain.StatusResolutionRecorded
	if emergency.Resolved() {
		status = domain.StatusResolved
	}
	h.emitAudit(c, "INFO", fmt.Sprintf("emergency resolution recorded status=%s", status), emergency.ChatID, emergency.ID)
	h.dispatcher.EmergencyStatusChanged(chat, emergency.Status(status, supervisorID))

	c.JSON(http.StatusOK, gin.H{
		"resolved":       emergency.Resolved(),
		"resolved_count": len(emergency.HasResolved),
		"required_count": len(emergency.AllowedToResolve),
	})
}

// ActivateAlert turns on the chat's lightweight alert toggle. Activating an
// already active alert is an idempotent no-op.
func (h *EmergencyHandler) ActivateAlert(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	now := time.Now().UTC()
	if !chat.ActivateAlert(userID, now) {
		c.JSON(http.StatusOK, gin.H{"active": true, "changed": false})
		return
	}
	changed, err := h.chatRepo.ActivateAlert(c.Request.Context(), chatID, userID, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not activate alert"})
		return
	}
	if !changed {
		// A concurrent activator won the conditional update; the database
		// records them as initiator, so this request changed nothing.
		c.JSON(http.StatusOK, gin.H{"active": true, "changed": false})
		return
	}

	h.emitAudit(c, "WARN", "alert activated", chatID, 0)
	h.dispatcher.EmergencyStatusChanged(chat, domain.EmergencyStatusChange{
		ChatID:  chatID,
		Status:  domain.StatusAlertActivated,
		ActorID: userID,
	})
	c.JSON(http.StatusOK, gin.H{"active": true, "changed": true})
}

// DeactivateAlert withdraws the alert toggle. Only the recorded initiator
// may withdraw it.
func (h *EmergencyHandler) DeactivateAlert(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}

	changed, err := chat.DeactivateAlert(userID)
	if err != nil {
		conflictJSON(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"active": false, "changed": false})
		return
	}
	cleared, err := h.chatRepo.DeactivateAlert(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate alert"})
		return
	}
	if !cleared {
		// The alert was withdrawn or re-activated by someone else between
		// the read and the conditional update.
		c.JSON(http.StatusOK, gin.H{"active": false, "changed": false})
		return
	}

	h.emitAudit(c, "INFO", "alert deactivated", chatID, 0)
	h.dispatcher.EmergencyStatusChanged(chat, domain.EmergencyStatusChange{
		ChatID:  chatID,
		Status:  domain.StatusAlertDeactivated,
		ActorID: userID,
	})
	c.JSON(http.StatusOK, gin.H{"active": false, "changed": true})
}

func (h *EmergencyHandler) emitAudit(c *gin.Context, level, text string, chatID, emergencyID int) {
	var userID *string
	if id := userIDFromContext(c); id != nil {
		value := strconv.FormatInt(*id, 10)
		userID = &value
	}
	h.audit.EmitEmergency(c.Request.Context(), level, text, requestIDFromContext(c), userID, chatID, emergencyID)
}

// conflictJSON maps a domain conflict to its HTTP shape: authorization
// conflicts are 403, everything else 409, always with the stable code.
func conflictJSON(c *gin.Context, err error) {
	conflict, ok := domain.AsConflict(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusConflict
	if conflict.Code == domain.CodeNotAuthorized || conflict.Code == domain.CodeNotInitiator {
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": conflict.Reason, "code": conflict.Code})
}
