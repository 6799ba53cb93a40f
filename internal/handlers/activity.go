package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/services"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:             log.With("handler", "ActivityHandler"),
		activityService: activityService,
	}
}

type createClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}

func (h *ActivityHandler) CreateClient(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.activityService.CreateClient(c.Request.Context(), userID, req.Name, req.Phone, req.City)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"client": view})
}

func (h *ActivityHandler) ListClients(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	views, err := h.activityService.ListClients(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"clients": views})
}

type createVisitRequest struct {
	ClientID uuid.UUID  `json:"client_id" binding:"required"`
	Date     *time.Time `json:"date"`
	Amount   float64    `json:"amount"`
	Outcome  string     `json:"outcome"`
}

func (h *ActivityHandler) CreateVisit(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	date := time.Time{}
	if req.Date != nil {
		date = *req.Date
	}
	visit, err := h.activityService.CreateVisit(c.Request.Context(), userID, req.ClientID, date, req.Amount, req.Outcome)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"visit": visit})
}

func (h *ActivityHandler) ListVisits(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	visits, err := h.activityService.ListVisits(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"visits": visits})
}

type createNoteRequest struct {
	ClientID uuid.UUID  `json:"client_id" binding:"required"`
	Date     *time.Time `json:"date"`
	Content  string     `json:"content" binding:"required"`
}

func (h *ActivityHandler) CreateNote(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	date := time.Time{}
	if req.Date != nil {
		date = *req.Date
	}
	note, err := h.activityService.CreateNote(c.Request.Context(), userID, req.ClientID, date, req.Content)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"note": note})
}
