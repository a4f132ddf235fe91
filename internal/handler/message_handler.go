package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/concordapp/concord-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// MessageHandler exposes the channel-message surface: cursor-paginated
// history plus create/edit/delete routed through the coordinator.
type MessageHandler struct {
	svc service.ChatService
}

func NewMessageHandler(svc service.ChatService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type EditMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) List(c echo.Context) error {
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid channel id"))
	}
	page, err := h.svc.Page(c.Request().Context(), channelID, c.QueryParam("cursor"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	parent, err := channelParent(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid path params"))
	}
	file, fileType, err := readAttachment(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable attachment"))
	}
	msg, err := h.svc.Create(c.Request().Context(), parent, uid, c.FormValue("content"), file, fileType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) Edit(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	parent, err := channelParent(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid path params"))
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.Edit(c.Request().Context(), parent, messageID, uid, req.Content)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	parent, err := channelParent(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid path params"))
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	msg, err := h.svc.Delete(c.Request().Context(), parent, messageID, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func channelParent(c echo.Context) (service.ParentRef, error) {
	serverID, err := parseID(c, "serverId")
	if err != nil {
		return service.ParentRef{}, err
	}
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return service.ParentRef{}, err
	}
	return service.ParentRef{ID: channelID, ServerID: serverID}, nil
}

func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// readAttachment pulls the optional multipart file part. A missing part means
// "no attachment", never an error.
func readAttachment(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}
