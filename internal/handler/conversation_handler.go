package handler

import (
	"net/http"

	"github.com/concordapp/concord-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ConversationRequest struct {
	MemberOneID uint64 `json:"memberOneId"`
	MemberTwoID uint64 `json:"memberTwoId"`
}

type ConversationResponse struct {
	ConversationID uint64 `json:"conversationId"`
	MemberOneID    uint64 `json:"memberOneId"`
	MemberTwoID    uint64 `json:"memberTwoId"`
}

// GetOrCreate establishes the 1:1 conversation for a member pair, idempotent
// across repeated calls and either ordering of the pair.
func (h *ConversationHandler) GetOrCreate(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req ConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	cv, err := h.svc.GetOrCreate(c.Request().Context(), req.MemberOneID, req.MemberTwoID, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ConversationResponse{
		ConversationID: cv.ID,
		MemberOneID:    cv.MemberOneID,
		MemberTwoID:    cv.MemberTwoID,
	})
}
