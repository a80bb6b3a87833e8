package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/message"
	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
	"github.com/simpleemail/simpleemail/internal/web/render"
)

// MessageHandler serves single-message views, attachment downloads and
// recipient flag mutations.
type MessageHandler struct {
	messages      *message.Service
	render        *render.Renderer
	secureCookies bool
}

func NewMessageHandler(messages *message.Service, renderer *render.Renderer, secureCookies bool) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

// ShowMessage renders one message with its attachments. Viewing as a
// recipient marks the record read.
func (h *MessageHandler) ShowMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	messageID, ok := parseUUIDParam(w, r, "messageID")
	if !ok {
		return
	}

	view, attachments, err := h.messages.View(r.Context(), user, messageID)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) || errors.Is(err, message.ErrNotParticipant) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to load message", "message_id", messageID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, r, "message.html", map[string]interface{}{
		"User":        user,
		"Message":     view,
		"Attachments": attachments,
	})
}

// HandleDownloadAttachment streams an attachment payload to a participant.
func (h *MessageHandler) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	attachmentID, ok := parseUUIDParam(w, r, "attachmentID")
	if !ok {
		return
	}

	att, data, err := h.messages.GetAttachment(r.Context(), user, attachmentID)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) || errors.Is(err, message.ErrNotParticipant) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to load attachment", "attachment_id", attachmentID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	w.Write(data)
}

// HandleMarkRead marks the user's recipient record read.
func (h *MessageHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutateRecipient(w, r, h.messages.MarkRead)
}

// HandleMarkArchived marks the user's recipient record archived.
func (h *MessageHandler) HandleMarkArchived(w http.ResponseWriter, r *http.Request) {
	h.mutateRecipient(w, r, h.messages.MarkArchived)
}

func (h *MessageHandler) mutateRecipient(w http.ResponseWriter, r *http.Request, mutate func(context.Context, *models.User, uuid.UUID) error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	recipientID, ok := parseUUIDParam(w, r, "recipientID")
	if !ok {
		return
	}

	if err := mutate(r.Context(), user, recipientID); err != nil {
		if errors.Is(err, message.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to update recipient record", "recipient_id", recipientID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		referer = "/"
	}
	http.Redirect(w, r, referer, http.StatusSeeOther)
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
