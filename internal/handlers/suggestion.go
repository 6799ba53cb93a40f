package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/requestdata"
	"github.com/fieldmate/fieldmate-backend/internal/services"
)

type SuggestionHandler struct {
	log               *logger.Logger
	suggestionService services.SuggestionService
}

func NewSuggestionHandler(log *logger.Logger, suggestionService services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		log:               log.With("handler", "SuggestionHandler"),
		suggestionService: suggestionService,
	}
}

func ownerID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// POST /suggestions/analyze
func (h *SuggestionHandler) Analyze(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	result, err := h.suggestionService.Generate(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /suggestions
func (h *SuggestionHandler) List(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	rows, err := h.suggestionService.ListActive(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"suggestions": rows})
}

// GET /suggestions/urgent?limit=5
func (h *SuggestionHandler) Urgent(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	rows, err := h.suggestionService.GetUrgent(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"suggestions": rows})
}

// GET /suggestions/briefing
func (h *SuggestionHandler) Briefing(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	text, err := h.suggestionService.Briefing(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "briefing_failed", err)
		return
	}
	RespondOK(c, gin.H{"briefing": text})
}

func (h *SuggestionHandler) Complete(c *gin.Context) { h.transition(c, "complete") }
func (h *SuggestionHandler) Postpone(c *gin.Context) { h.transition(c, "postpone") }
func (h *SuggestionHandler) Ignore(c *gin.Context)   { h.transition(c, "ignore") }

func (h *SuggestionHandler) transition(c *gin.Context, action string) {
	if _, ok := ownerID(c); !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var done bool
	switch action {
	case "complete":
		done, err = h.suggestionService.Complete(c.Request.Context(), id)
	case "postpone":
		done, err = h.suggestionService.Postpone(c.Request.Context(), id)
	default:
		done, err = h.suggestionService.Ignore(c.Request.Context(), id)
	}
	if err != nil {
		RespondError(c, http.StatusConflict, "transition_failed", err)
		return
	}
	if !done {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
