// Package relay implements POST /chat: it turns an inbound message into a
// prompt, runs the chat and answers with the reply envelope.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/support-relay/internal/api/anthropic"
	"github.com/tjfontaine/support-relay/internal/chat"
	"github.com/tjfontaine/support-relay/internal/prompt"
	"github.com/tjfontaine/support-relay/internal/server"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatReply is one element of the POST /chat response list.
type ChatReply struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Chatter runs one chat turn.
type Chatter interface {
	Chat(ctx context.Context, system prompt.System, messages []anthropic.Message) (string, error)
}

const maxBodyBytes = 1 << 20

// Handler serves POST /chat.
type Handler struct {
	log     *slog.Logger
	chatter Chatter
	caching bool
}

// New returns a Handler that answers through chatter.
func New(log *slog.Logger, chatter Chatter, caching bool) Handler {
	return Handler{
		log:     log,
		chatter: chatter,
		caching: caching,
	}
}

// Register mounts the handler on r.
func (h Handler) Register(r chi.Router) {
	r.Post("/chat", h.ServeHTTP)
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := server.Logger(ctx, h.log)

	if !isJSON(r.Header.Get("Content-Type")) {
		server.WriteError(w, http.StatusBadRequest, "Content must be json")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		server.AddError(ctx, err)
		server.WriteError(w, http.StatusBadRequest, "400 - Bad Request: "+err.Error())
		return
	}

	log.Info("chat request received", slog.String("sender", req.Sender), slog.String("text", req.Text))

	system, messages := prompt.Build(req.Text, h.caching)
	reply, err := h.chatter.Chat(ctx, system, messages)
	if err != nil {
		server.AddError(ctx, err)
		if errors.Is(err, chat.ErrUnhandledResponse) {
			log.Warn("no reply for the user", slog.Any("error", err))
			server.WriteError(w, http.StatusBadGateway, "502 - Bad Gateway: "+err.Error())
			return
		}
		log.Error("chat failed", slog.Any("error", err))
		server.WriteError(w, http.StatusInternalServerError, "500 - Internal Server Error: "+err.Error())
		return
	}

	server.WriteJSON(w, []ChatReply{{RecipientID: req.Sender, Text: reply}}, http.StatusOK)
}

// isJSON accepts application/json and application/*+json, ignoring parameters.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}
