package handler

import (
	"net/http"

	"github.com/concordapp/concord-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DirectMessageHandler is the conversation-scoped twin of MessageHandler.
type DirectMessageHandler struct {
	svc service.ChatService
}

func NewDirectMessageHandler(svc service.ChatService) *DirectMessageHandler {
	return &DirectMessageHandler{svc: svc}
}

func (h *DirectMessageHandler) List(c echo.Context) error {
	conversationID, err := parseID(c, "conversationId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	page, err := h.svc.Page(c.Request().Context(), conversationID, c.QueryParam("cursor"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *DirectMessageHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	conversationID, err := parseID(c, "conversationId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	file, fileType, err := readAttachment(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable attachment"))
	}
	parent := service.ParentRef{ID: conversationID}
	msg, err := h.svc.Create(c.Request().Context(), parent, uid, c.FormValue("content"), file, fileType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *DirectMessageHandler) Edit(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	conversationID, err := parseID(c, "conversationId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.Edit(c.Request().Context(), service.ParentRef{ID: conversationID}, messageID, uid, req.Content)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *DirectMessageHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	conversationID, err := parseID(c, "conversationId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	msg, err := h.svc.Delete(c.Request().Context(), service.ParentRef{ID: conversationID}, messageID, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}
