package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

type ChatHandler struct {
	chats *services.ChatService
	hub   *services.ChatHub
	ws    *wsConfig
	log   *zap.Logger
}

// NewChatHandler serves the chat REST routes and, when hub is non-nil, the
// WebSocket stream. allowedOrigins limits which pages may open the stream.
func NewChatHandler(chats *services.ChatService, hub *services.ChatHub, allowedOrigins []string, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, hub: hub, ws: newWSConfig(allowedOrigins), log: log}
}

type createChatRequest struct {
	User1ID string `json:"user1Id" validate:"required"`
	User2ID string `json:"user2Id" validate:"required"`
}

// CreateOrGet handles POST /chats.
func (h *ChatHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := decode(w, r, &req, services.MsgUserIDsRequired); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	chat, err := h.chats.CreateOrGetChat(ctx, req.User1ID, req.User2ID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "chat", chat)
}

type sendMessageRequest struct {
	SenderID string `json:"senderId" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SendMessage handles POST /chats/{id}/messages.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decode(w, r, &req, services.MsgSenderRequired); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	msg, err := h.chats.SendMessage(ctx, chi.URLParam(r, "id"), req.SenderID, req.Message)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "message", msg)
}

// Messages handles GET /chats/{id}/messages.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeContext(r)
	defer cancel()

	messages, err := h.chats.GetMessages(ctx, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "messages", messages)
}

// ListForUser handles GET /chats/{id}, where id is a user id.
func (h *ChatHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeContext(r)
	defer cancel()

	chats, err := h.chats.ListChatsForUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "chats", chats)
}
